package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Skotchmaster/dulcehogar/internal/handlers"
	"github.com/Skotchmaster/dulcehogar/internal/metrics"
	"github.com/Skotchmaster/dulcehogar/internal/middleware/auth"
	"github.com/Skotchmaster/dulcehogar/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/dulcehogar/internal/middleware/logging"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	"github.com/Skotchmaster/dulcehogar/internal/web"
)

type Deps struct {
	Logger *slog.Logger
	DB     *gorm.DB

	Auth      *service.AuthService
	Users     *service.UserService
	Catalog   *service.CatalogService
	Customers *service.CustomerService
	Orders    *service.OrderService

	SecureCookies bool
	LoginRate     float64
	LoginBurst    int
}

// New builds the echo instance with middleware and every route registered.
func New(d *Deps) (*echo.Echo, error) {
	renderer, err := handlers.NewRenderer(web.FS)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handlers.NewFormValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler

	guard := &auth.Guard{Auth: d.Auth, Secure: d.SecureCookies}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = d.SecureCookies
	csrfCfg.SkipPaths = []string{"/metrics", "/health/live", "/health/ready"}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(notice.Middleware(d.SecureCookies))
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(d.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(csrf.Middleware(csrfCfg))
	e.Use(guard.Load)

	Register(e, d, guard)
	return e, nil
}

func Register(e *echo.Echo, d *Deps, guard *auth.Guard) {
	pages := &handlers.PageHandler{DB: d.DB, Catalog: d.Catalog, Customers: d.Customers, Orders: d.Orders}
	authH := &handlers.AuthHandler{Auth: d.Auth, Secure: d.SecureCookies}
	categories := &handlers.CategoryHandler{Catalog: d.Catalog}
	products := &handlers.ProductHandler{Catalog: d.Catalog}
	customers := &handlers.CustomerHandler{Customers: d.Customers}
	orders := &handlers.OrderHandler{Orders: d.Orders, Customers: d.Customers}
	users := &handlers.UserHandler{Users: d.Users}

	e.GET("/health/live", pages.Live)
	e.GET("/health/ready", pages.Ready)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	e.GET("/about", pages.About)
	e.GET("/login", authH.LoginForm)
	e.POST("/login", authH.Login, loginLimiter(d.LoginRate, d.LoginBurst))
	e.GET(auth.LogoutPath, authH.LogOut)

	app := e.Group("", guard.RequireSession)
	app.GET("/", pages.Index)

	crud(app.Group("/categorias"), categories.List, categories.New, categories.Create, categories.Edit, categories.Update, categories.Delete)

	prod := app.Group("/productos")
	prod.GET("/buscar", products.Search)
	crud(prod, products.List, products.New, products.Create, products.Edit, products.Update, products.Delete)

	crud(app.Group("/clientes"), customers.List, customers.New, customers.Create, customers.Edit, customers.Update, customers.Delete)

	ord := app.Group("/ordenes")
	ord.POST("/estado/:id", orders.SetStatus)
	crud(ord, orders.List, orders.New, orders.Create, orders.Edit, orders.Update, orders.Delete)

	admin := app.Group("/usuarios", guard.RequireAdmin)
	crud(admin, users.List, users.New, users.Create, users.Edit, users.Update, users.Delete)
}

// crud registers the list, create, edit and delete routes shared by every resource.
func crud(g *echo.Group, list, newForm, create, edit, update, del echo.HandlerFunc) {
	g.GET("", list)
	g.GET("/nuevo", newForm)
	g.POST("/nuevo", create)
	g.GET("/editar/:id", edit)
	g.POST("/editar/:id", update)
	g.POST("/eliminar/:id", del)
}

// loginLimiter throttles login attempts per client IP.
func loginLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 5
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "No se pudo identificar el cliente.")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Demasiados intentos. Espera un momento e inténtalo de nuevo.")
		},
	})
}
