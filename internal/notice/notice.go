// Package notice carries one-shot user messages across a redirect in a short-lived cookie.
package notice

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	Success = "success"
	Info    = "info"
	Warning = "warning"
	Danger  = "danger"
)

const (
	CookieName = "notice"
	ctxKey     = "notices"
	secureKey  = "notices_secure"
	maxAge     = 5 * time.Minute
)

type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Middleware marks notice cookies written during the request as Secure.
func Middleware(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(secureKey, secure)
			return next(c)
		}
	}
}

// Add queues a notice for the next rendered page.
func Add(c echo.Context, level, message string) {
	list := append(current(c), Notice{Level: level, Message: message})
	c.Set(ctxKey, list)
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    encode(list),
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns every queued notice and clears them.
func Pop(c echo.Context) []Notice {
	list := current(c)
	c.Set(ctxKey, []Notice{})
	if len(list) > 0 {
		c.SetCookie(&http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   secure(c),
			SameSite: http.SameSiteLaxMode,
		})
	}
	return list
}

// current is the request's notice list, loaded from the cookie on first use.
func current(c echo.Context) []Notice {
	if list, ok := c.Get(ctxKey).([]Notice); ok {
		return list
	}
	var list []Notice
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		list = decode(ck.Value)
	}
	c.Set(ctxKey, list)
	return list
}

func secure(c echo.Context) bool {
	on, _ := c.Get(secureKey).(bool)
	return on
}

func encode(list []Notice) string {
	b, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(v string) []Notice {
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	var list []Notice
	if err := json.Unmarshal(b, &list); err != nil {
		return nil
	}
	return list
}
