package notice

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func lastCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			found = ck
		}
	}
	return found
}

func TestAddThenPopAcrossRequests(t *testing.T) {
	c, rec := newCtx()
	Add(c, Success, "Categoría creada con éxito")
	Add(c, Warning, "otra")

	ck := lastCookie(rec, CookieName)
	require.NotNil(t, ck)

	next, rec2 := newCtx(ck)
	got := Pop(next)
	require.Len(t, got, 2)
	assert.Equal(t, Notice{Level: Success, Message: "Categoría creada con éxito"}, got[0])
	assert.Equal(t, Warning, got[1].Level)

	cleared := lastCookie(rec2, CookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	assert.Empty(t, Pop(next))
}

func TestPopSeesNoticesAddedInSameRequest(t *testing.T) {
	c, _ := newCtx()
	Add(c, Danger, "boom")
	got := Pop(c)
	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].Message)
}

func TestPopIgnoresGarbageCookie(t *testing.T) {
	c, rec := newCtx(&http.Cookie{Name: CookieName, Value: "%%%"})
	assert.Empty(t, Pop(c))
	assert.Nil(t, lastCookie(rec, CookieName))
}

func TestMiddlewareMarksCookiesSecure(t *testing.T) {
	for _, on := range []bool{true, false} {
		c, rec := newCtx()
		h := Middleware(on)(func(c echo.Context) error {
			Add(c, Info, "hola")
			return nil
		})
		require.NoError(t, h(c))
		ck := lastCookie(rec, CookieName)
		require.NotNil(t, ck)
		assert.Equal(t, on, ck.Secure)

		next, rec2 := newCtx(ck)
		h = Middleware(on)(func(c echo.Context) error {
			Pop(c)
			return nil
		})
		require.NoError(t, h(next))
		cleared := lastCookie(rec2, CookieName)
		require.NotNil(t, cleared)
		assert.Equal(t, on, cleared.Secure)
	}
}
