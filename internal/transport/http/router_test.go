package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/dulcehogar/internal/db"
	"github.com/Skotchmaster/dulcehogar/internal/db/dbtest"
	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/repo"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	"github.com/Skotchmaster/dulcehogar/internal/session"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

const origin = "http://example.com"

type env struct {
	e     *echo.Echo
	deps  *Deps
	users *service.UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := dbtest.Open(t)
	r := &repo.GormRepo{DB: gdb}
	d := &Deps{
		Logger:     logging.Discard(),
		DB:         gdb,
		Auth:       &service.AuthService{Repo: r, Secret: []byte("test-secret"), SessionTTL: time.Hour},
		Users:      &service.UserService{Repo: r},
		Catalog:    &service.CatalogService{Repo: r, Policy: service.PolicySetNull},
		Customers:  &service.CustomerService{Repo: r},
		Orders:     &service.OrderService{Repo: r},
		LoginRate:  1000,
		LoginBurst: 1000,
	}
	e, err := New(d)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = d.Users.Create(ctx, transport.UserInput{Name: "Ana", Email: "admin@dulcehogar.com", Role: models.RoleAdmin, Password: "admin123"})
	require.NoError(t, err)
	_, err = d.Users.Create(ctx, transport.UserInput{Name: "Beto", Email: "beto@dulcehogar.com", Role: models.RoleEmployee, Password: "secreto1"})
	require.NoError(t, err)

	return &env{e: e, deps: d, users: d.Users}
}

// browser keeps cookies between requests the way a real client would.
type browser struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func (te *env) browser(t *testing.T) *browser {
	return &browser{t: t, e: te.e, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if _, ok := b.cookies["XSRF-TOKEN"]; !ok {
		b.get("/login")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", b.cookies["XSRF-TOKEN"].Value)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Origin", origin)
	return b.do(req)
}

func (b *browser) login(email, password string) {
	rec := b.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(b.t, "/", rec.Header().Get(echo.HeaderLocation))
	require.Contains(b.t, b.cookies, session.CookieName)
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	b := newEnv(t).browser(t)

	rec := b.get("/categorias")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	rec = b.get("/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Por favor inicia sesión")

	rec = b.get("/login")
	assert.NotContains(t, rec.Body.String(), "Por favor inicia sesión")
}

func TestPublicPages(t *testing.T) {
	b := newEnv(t).browser(t)

	assert.Equal(t, http.StatusOK, b.get("/about").Code)
	assert.Equal(t, http.StatusOK, b.get("/health/live").Code)
	assert.Equal(t, http.StatusOK, b.get("/health/ready").Code)

	rec := b.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dulcehogar_http_requests_total")
}

func TestSecureCookiesCoverNotices(t *testing.T) {
	te := newEnv(t)
	te.deps.SecureCookies = true
	e, err := New(te.deps)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categorias", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == notice.CookieName {
			found = true
			assert.True(t, ck.Secure)
		}
	}
	assert.True(t, found)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	b := newEnv(t).browser(t)

	rec := b.post("/login", url.Values{"email": {"admin@dulcehogar.com"}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Correo o contraseña incorrectos.")
	assert.NotContains(t, b.cookies, session.CookieName)

	rec = b.post("/login", url.Values{"email": {"no-es-correo"}, "password": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginAndLogout(t *testing.T) {
	b := newEnv(t).browser(t)
	b.login("ADMIN@dulcehogar.com", "admin123")

	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bienvenido, Ana.")
	assert.Contains(t, rec.Body.String(), "Usuarios")

	token := b.cookies[session.CookieName]
	rec = b.get("/logout")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.NotContains(t, b.cookies, session.CookieName)

	// the old cookie no longer opens a session
	b.cookies[session.CookieName] = token
	rec = b.get("/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestLogoutClearsCookieWhenStoreFails(t *testing.T) {
	te := newEnv(t)
	b := te.browser(t)
	b.login("admin@dulcehogar.com", "admin123")

	require.NoError(t, db.Close(te.deps.DB))

	rec := b.get("/logout")
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.NotContains(t, b.cookies, session.CookieName)

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	b := newEnv(t).browser(t)
	b.login("admin@dulcehogar.com", "admin123")

	req := httptest.NewRequest(http.MethodPost, "/categorias/nuevo", strings.NewReader("name=Panes"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Origin", origin)
	rec := b.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCategoryLifecycle(t *testing.T) {
	b := newEnv(t).browser(t)
	b.login("beto@dulcehogar.com", "secreto1")

	rec := b.post("/categorias/nuevo", url.Values{"name": {"Postres"}, "description": {"Dulces"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/categorias", rec.Header().Get(echo.HeaderLocation))

	rec = b.get("/categorias")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Categoría creada con éxito")
	assert.Contains(t, rec.Body.String(), "Postres")

	rec = b.post("/categorias/nuevo", url.Values{"name": {"Postres"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ya existe un registro con ese nombre.")

	rec = b.post("/categorias/nuevo", url.Values{"name": {"P"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Debe tener al menos 2 caracteres.")

	rec = b.get("/categorias/editar/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Postres"`)

	rec = b.post("/categorias/editar/1", url.Values{"name": {"Tortas"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Equal(t, http.StatusNotFound, b.get("/categorias/editar/99").Code)

	rec = b.post("/categorias/eliminar/99", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/categorias").Body.String(), "El registro solicitado no existe.")

	rec = b.post("/categorias/eliminar/1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	body := b.get("/categorias").Body.String()
	assert.Contains(t, body, "Categoría eliminada con éxito.")
	assert.NotContains(t, body, "Tortas")
}

func TestProductFormAndSearch(t *testing.T) {
	env := newEnv(t)
	b := env.browser(t)
	b.login("beto@dulcehogar.com", "secreto1")

	cat, err := env.deps.Catalog.CreateCategory(context.Background(), transport.CategoryInput{Name: "Postres"})
	require.NoError(t, err)

	rec := b.post("/productos/nuevo", url.Values{"name": {"Pastel"}, "quantity": {"-1"}, "price": {"abc"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Debe ser un número entero mayor o igual a 0.")
	assert.Contains(t, rec.Body.String(), "Debe ser un número mayor o igual a 0.")
	assert.Contains(t, rec.Body.String(), `value="abc"`)

	rec = b.post("/productos/nuevo", url.Values{
		"name":        {"Pastel"},
		"quantity":    {"10"},
		"price":       {"15,5"},
		"category_id": {idString(cat.ID)},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.get("/productos")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Producto agregado correctamente.")
	assert.Contains(t, rec.Body.String(), "15.50")
	assert.Contains(t, rec.Body.String(), "Postres")

	rec = b.get("/productos/buscar?q=PAS")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pastel")

	rec = b.get("/productos/buscar?q=galleta")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No hay productos.")

	rec = b.post("/productos/nuevo", url.Values{"name": {"Pan"}, "quantity": {"1"}, "price": {"1"}, "category_id": {"77"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Categoría desconocida.")
}

func TestOrdersNeedACustomer(t *testing.T) {
	b := newEnv(t).browser(t)
	b.login("beto@dulcehogar.com", "secreto1")

	rec := b.get("/ordenes/nuevo")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clientes", rec.Header().Get(echo.HeaderLocation))
	assert.Contains(t, b.get("/clientes").Body.String(), "Debe agregar al menos un cliente antes de crear una orden.")

	rec = b.post("/ordenes/nuevo", url.Values{"customer_id": {"1"}, "date": {"2024-05-01"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clientes", rec.Header().Get(echo.HeaderLocation))

	rec = b.post("/clientes/nuevo", url.Values{"name": {"Lucía"}, "email": {"lucia@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.get("/ordenes/nuevo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lucía")

	rec = b.post("/ordenes/nuevo", url.Values{"customer_id": {"1"}, "date": {"2024-05-01"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	body := b.get("/ordenes").Body.String()
	assert.Contains(t, body, "Orden creada con éxito.")
	assert.Contains(t, body, "Abierta")

	rec = b.post("/ordenes/estado/1", url.Values{"status": {"fulfilled"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/ordenes").Body.String(), "Entregada")

	rec = b.post("/ordenes/estado/1", url.Values{"status": {"cancelled"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/ordenes").Body.String(), "No se puede pasar")

	rec = b.post("/clientes/eliminar/1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/clientes").Body.String(), "el registro está en uso")

	rec = b.post("/ordenes/eliminar/1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get("/ordenes").Body.String(), "Orden eliminada con éxito.")
}

func TestUsersAreAdminOnly(t *testing.T) {
	env := newEnv(t)

	emp := env.browser(t)
	emp.login("beto@dulcehogar.com", "secreto1")
	rec := emp.get("/usuarios")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Contains(t, emp.get("/").Body.String(), "No tienes permisos")

	admin := env.browser(t)
	admin.login("admin@dulcehogar.com", "admin123")
	rec = admin.get("/usuarios")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "beto@dulcehogar.com")

	rec = admin.post("/usuarios/nuevo", url.Values{"name": {"Caro"}, "email": {"caro@dulcehogar.com"}, "role": {"employee"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Este campo es obligatorio.")

	rec = admin.post("/usuarios/nuevo", url.Values{"name": {"Caro"}, "email": {"beto@dulcehogar.com"}, "role": {"employee"}, "password": {"x1"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ya existe un registro con ese correo.")

	rec = admin.post("/usuarios/eliminar/1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, admin.get("/usuarios").Body.String(), "No puedes eliminar tu propia cuenta.")

	// promoting the employee applies to the open session
	rec = admin.post("/usuarios/editar/2", url.Values{"name": {"Beto"}, "email": {"beto@dulcehogar.com"}, "role": {"admin"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusOK, emp.get("/usuarios").Code)

	rec = admin.post("/usuarios/eliminar/2", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusSeeOther, emp.get("/").Code)
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
