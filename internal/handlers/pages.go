package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/dulcehogar/internal/db"
	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/service"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
	"github.com/Skotchmaster/dulcehogar/internal/util"
)

type PageHandler struct {
	DB        *gorm.DB
	Catalog   *service.CatalogService
	Customers *service.CustomerService
	Orders    *service.OrderService
}

type Dashboard struct {
	Categories int64
	Products   int64
	Customers  int64
	Orders     int64
}

func (h *PageHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "index")

	one := transport.Page{Limit: 1}
	var d Dashboard
	var err error
	if d.Categories, _, err = h.Catalog.ListCategories(ctx, one); err == nil {
		if d.Products, _, err = h.Catalog.ListProducts(ctx, one); err == nil {
			if d.Customers, _, err = h.Customers.List(ctx, one); err == nil {
				d.Orders, _, err = h.Orders.List(ctx, one)
			}
		}
	}
	if err != nil {
		l.Error("index_error", "status", 500, "error", err)
		return err
	}
	return page(c, http.StatusOK, "index.html", View{Title: "Inicio", Data: d})
}

func (h *PageHandler) About(c echo.Context) error {
	return page(c, http.StatusOK, "about.html", View{Title: "Acerca de"})
}

func (h *PageHandler) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *PageHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx, h.DB); err != nil {
		logging.FromContext(ctx).Error("readiness_failed", "status", 503, "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

// listPage reads ?page and ?size. Without them the whole table is listed.
func listPage(c echo.Context) (transport.Page, func(total int64) util.Meta) {
	pg, size, ok := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	if !ok {
		return transport.Page{}, func(total int64) util.Meta { return util.NewMeta(1, 0, total) }
	}
	offset, limit := util.Calculate(pg, size)
	return transport.Page{Offset: offset, Limit: limit}, func(total int64) util.Meta {
		return util.NewMeta(pg, limit, total)
	}
}
