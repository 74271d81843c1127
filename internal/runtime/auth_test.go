package runtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestSignAndVerifyJWT(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := SignJWT("user-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		sub, ok := Subject(c.Request().Context())
		if !ok || sub != "user-1" {
			t.Errorf("subject = %q ok=%v", sub, ok)
		}
		return c.String(http.StatusOK, c.Get("user_id").(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("user_id = %q", rec.Body.String())
	}
}

func TestAuthMiddlewareCookie(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := SignJWT("user-2", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: tok})
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	secret := []byte("test-secret")
	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err == nil {
		t.Error("missing token accepted")
	}

	expired, err := SignJWT("user-3", secret, -time.Minute)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec = httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err == nil {
		t.Error("expired token accepted")
	}

	other, err := SignJWT("user-4", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}
