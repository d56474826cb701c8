package handlers

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/dulcehogar/internal/middleware/csrf"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/notice"
	"github.com/Skotchmaster/dulcehogar/internal/session"
	"github.com/Skotchmaster/dulcehogar/internal/util"
	"github.com/Skotchmaster/dulcehogar/internal/web"
)

const partials = "templates/partials.html"

// View is the data every page template receives.
type View struct {
	Title   string
	Session *session.Session
	Notices []notice.Notice
	CSRF    string
	Errors  map[string]string
	Form    any
	Data    any
	Action  string
	Mode    string
	Page    util.Meta
	Query   string
}

type ErrorPage struct {
	Code    int
	Message string
}

type fieldView struct {
	Name, Label, Type, Value, Error string
}

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"idstr": func(id uint) string { return strconv.FormatUint(uint64(id), 10) },
	"add":   func(a, b int) int { return a + b },
	"sub":   func(a, b int) int { return a - b },
	"field": func(name, label, typ, value string, errs map[string]string) fieldView {
		return fieldView{Name: name, Label: label, Type: typ, Value: value, Error: errs[name]}
	},
	"roleLabel": func(role string) string {
		if role == models.RoleAdmin {
			return "Administrador"
		}
		return "Empleado"
	},
	"statusLabel": func(status string) string {
		switch status {
		case models.OrderStatusFulfilled:
			return "Entregada"
		case models.OrderStatusCancelled:
			return "Cancelada"
		}
		return "Abierta"
	},
}

// Renderer parses every page together with the layout and shared partials.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer(fsys fs.FS) (*Renderer, error) {
	entries, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(entries))}
	for _, entry := range entries {
		if entry == web.Layout || entry == partials {
			continue
		}
		name := path.Base(entry)
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys, web.Layout, partials, entry)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// page fills the per-request parts of v and renders it.
func page(c echo.Context, code int, name string, v View) error {
	v.Session, _ = session.FromContext(c.Request().Context())
	v.CSRF, _ = c.Get(csrf.ContextKey).(string)
	v.Notices = notice.Pop(c)
	if v.Errors == nil {
		v.Errors = map[string]string{}
	}
	return c.Render(code, name, v)
}
