package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/session"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse(nil).
		Status(http.StatusTooManyRequests).
		Text("slow down").
		Write(w)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Body.String() != "slow down" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "slow down")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestResponseBuilder_RedirectWithFlash(t *testing.T) {
	mgr := session.NewManager("0123456789abcdef0123456789abcdef", time.Hour, false)
	w := httptest.NewRecorder()

	NewResponse(mgr).Success("Category added.").Redirect("/categories").Write(w)

	if w.Code != http.StatusSeeOther {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/categories" {
		t.Errorf("Location = %q", loc)
	}

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == session.FlashCookieName {
			found = true
		}
		req.AddCookie(c)
	}
	if !found {
		t.Fatal("flash cookie not set")
	}
	f, ok := mgr.PopFlash(httptest.NewRecorder(), req)
	if !ok || f.Kind != session.FlashSuccess || f.Message != "Category added." {
		t.Errorf("unexpected flash %+v %v", f, ok)
	}
}

func TestResponseBuilder_FlashWithoutManager(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse(nil).Error("ignored").Redirect("/").Write(w)

	if len(w.Result().Cookies()) != 0 {
		t.Errorf("expected no cookies, got %v", w.Result().Cookies())
	}
	if w.Code != http.StatusSeeOther {
		t.Errorf("Status code = %d", w.Code)
	}
}

func TestResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse(nil).
		Header("Cache-Control", "no-store").
		Attachment("transactions 2024.csv", "text/csv; charset=utf-8", []byte("a,b\n")).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="transactions 2024.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if w.Body.String() != "a,b\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&core.ValidationError{Field: "confirm_password", Reason: "does not match"}, "Confirm password does not match."},
		{&core.ValidationError{Field: "form", Reason: "could not be read"}, "Could not be read."},
		{fmt.Errorf("update: %w", core.ErrForbidden), "You do not have permission to change that."},
		{core.ErrCategoryInUse, "This category still has transactions and cannot be deleted."},
		{core.ErrInvalidReference, "Choose one of your own categories."},
		{core.ErrInvalidCredentials, "Invalid email or password."},
		{core.ErrEmailTaken, "Email is already registered."},
		{errors.New("boom"), "Something went wrong."},
	}
	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("userMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
