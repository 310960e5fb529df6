// internal/app/features/users/handler_test.go
package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	userstore "github.com/touristahq/tourista/internal/app/store/users"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/auth"
	"github.com/touristahq/tourista/internal/app/system/images"
	"github.com/touristahq/tourista/internal/app/system/mailer"
	"github.com/touristahq/tourista/internal/domain/models"
	"github.com/touristahq/tourista/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// captureSender records outbound email instead of delivering it. Sends
// happen off the request goroutine, so tests wait on the channel.
type captureSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	ch   chan mailer.Email
}

func newCaptureSender() *captureSender {
	return &captureSender{ch: make(chan mailer.Email, 8)}
}

func (c *captureSender) Send(ctx context.Context, e mailer.Email) error {
	c.mu.Lock()
	c.sent = append(c.sent, e)
	c.mu.Unlock()
	c.ch <- e
	return nil
}

func (c *captureSender) wait(t *testing.T) mailer.Email {
	t.Helper()
	select {
	case e := <-c.ch:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no email captured within 5s")
		return mailer.Email{}
	}
}

type fixture struct {
	router chi.Router
	store  *userstore.Store
	mail   *captureSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	logger := zap.NewNop()
	errs := apperr.NewHandler(logger, true)
	store := userstore.New(db)
	sessions := auth.New("test-secret", time.Hour, time.Hour, store, errs, logger)

	sender := newCaptureSender()
	mail := mailer.New(sender, "Tourista", logger, nil)

	photos, err := images.NewLocal(t.TempDir(), "/img")
	if err != nil {
		t.Fatalf("local image store: %v", err)
	}

	h := NewHandler(store, sessions, mail, photos, errs, logger)
	return &fixture{router: Routes(h, sessions, errs), store: store, mail: sender}
}

func (f *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns its token.
func (f *fixture) signup(t *testing.T, email string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/signup",
		`{"name":"Ada","email":"`+email+`","password":"pass1234","passwordConfirm":"pass1234"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	f.mail.wait(t) // welcome email
	env := testutil.DecodeEnvelope(t, rec)
	if env.Token == "" {
		t.Fatal("signup response has no token")
	}
	return env.Token
}

func TestSignupIssuesTokenAndCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/signup",
		`{"name":"Ada","email":"ada@example.com","password":"pass1234","passwordConfirm":"pass1234"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup = %d (body %s)", rec.Code, rec.Body.String())
	}

	env := testutil.DecodeEnvelope(t, rec)
	if env.Token == "" {
		t.Error("no token in response")
	}
	var user models.User
	testutil.DataField(t, env, "user", &user)
	if user.Email != "ada@example.com" {
		t.Errorf("user email = %q", user.Email)
	}
	if strings.Contains(rec.Body.String(), "pass1234") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("response leaks password material")
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "jwt" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("jwt cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("jwt cookie is not http-only")
	}

	welcome := f.mail.wait(t)
	if welcome.To != "ada@example.com" {
		t.Errorf("welcome sent to %q", welcome.To)
	}
	if !strings.Contains(welcome.Subject, "Tourista") {
		t.Errorf("welcome subject = %q", welcome.Subject)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "dup@example.com")

	rec := f.do(t, http.MethodPost, "/signup",
		`{"name":"Ada","email":"dup@example.com","password":"pass1234","passwordConfirm":"pass1234"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already registered") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSignupPasswordMismatch(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/signup",
		`{"name":"Ada","email":"a@example.com","password":"pass1234","passwordConfirm":"different1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatched signup = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "passwords are not the same") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "login@example.com")

	t.Run("correct credentials", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login",
			`{"email":"login@example.com","password":"pass1234"}`, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("login = %d (body %s)", rec.Code, rec.Body.String())
		}
		if testutil.DecodeEnvelope(t, rec).Token == "" {
			t.Error("no token in login response")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login",
			`{"email":"login@example.com","password":"wrongpass"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "incorrect email or password") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("unknown email gets the same message", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login",
			`{"email":"nobody@example.com","password":"pass1234"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "incorrect email or password") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login", `{"email":"login@example.com"}`, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("login = %d, want 400", rec.Code)
		}
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/logout", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d", rec.Code)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "jwt" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != "loggedout" {
		t.Fatalf("logout cookie = %+v", cookie)
	}
}

var resetTokenRe = regexp.MustCompile(`/resetPassword/([0-9a-f]+)`)

func resetTokenFrom(t *testing.T, e mailer.Email) string {
	t.Helper()
	m := resetTokenRe.FindStringSubmatch(e.TextBody)
	if m == nil {
		t.Fatalf("no reset link in email body: %s", e.TextBody)
	}
	return m[1]
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "reset@example.com")

	rec := f.do(t, http.MethodPost, "/forgotPassword", `{"email":"reset@example.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("forgotPassword = %d (body %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "token sent to email") {
		t.Errorf("body = %s", rec.Body.String())
	}
	token := resetTokenFrom(t, f.mail.wait(t))

	rec = f.do(t, http.MethodPatch, "/resetPassword/"+token,
		`{"password":"newpass99","passwordConfirm":"newpass99"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("resetPassword = %d (body %s)", rec.Code, rec.Body.String())
	}
	if testutil.DecodeEnvelope(t, rec).Token == "" {
		t.Error("reset response has no login token")
	}

	// Old password no longer works, new one does.
	rec = f.do(t, http.MethodPost, "/login", `{"email":"reset@example.com","password":"pass1234"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("old password login = %d, want 401", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/login", `{"email":"reset@example.com","password":"newpass99"}`, "")
	if rec.Code != http.StatusOK {
		t.Errorf("new password login = %d (body %s)", rec.Code, rec.Body.String())
	}

	// The consumed token is gone.
	rec = f.do(t, http.MethodPatch, "/resetPassword/"+token,
		`{"password":"another99","passwordConfirm":"another99"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reused token = %d, want 400", rec.Code)
	}
}

func TestSecondResetRequestInvalidatesFirst(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "twice@example.com")

	f.do(t, http.MethodPost, "/forgotPassword", `{"email":"twice@example.com"}`, "")
	first := resetTokenFrom(t, f.mail.wait(t))

	f.do(t, http.MethodPost, "/forgotPassword", `{"email":"twice@example.com"}`, "")
	second := resetTokenFrom(t, f.mail.wait(t))

	rec := f.do(t, http.MethodPatch, "/resetPassword/"+first,
		`{"password":"newpass99","passwordConfirm":"newpass99"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("first token after reissue = %d, want 400", rec.Code)
	}
	rec = f.do(t, http.MethodPatch, "/resetPassword/"+second,
		`{"password":"newpass99","passwordConfirm":"newpass99"}`, "")
	if rec.Code != http.StatusOK {
		t.Errorf("second token = %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/forgotPassword", `{"email":"ghost@example.com"}`, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("forgotPassword = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no user with that email address") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestResetPasswordBogusToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPatch, "/resetPassword/deadbeef",
		`{"password":"newpass99","passwordConfirm":"newpass99"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus token = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "token is invalid or has expired") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestUpdateMyPassword(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "chg@example.com")

	t.Run("wrong current password", func(t *testing.T) {
		rec := f.do(t, http.MethodPatch, "/updateMyPassword",
			`{"passwordCurrent":"wrongpass","password":"newpass99","passwordConfirm":"newpass99"}`, token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("update = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "your current password is wrong") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("correct current password", func(t *testing.T) {
		// Token issue times have second granularity and the change
		// timestamp is backdated 1s, so let the signup second pass.
		time.Sleep(1100 * time.Millisecond)

		rec := f.do(t, http.MethodPatch, "/updateMyPassword",
			`{"passwordCurrent":"pass1234","password":"newpass99","passwordConfirm":"newpass99"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("update = %d (body %s)", rec.Code, rec.Body.String())
		}

		// The pre-change token is now stale.
		rec = f.do(t, http.MethodGet, "/me", "", token)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("stale token = %d, want 401", rec.Code)
		}
	})
}

func TestMeAndUpdateMe(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "me@example.com")

	rec := f.do(t, http.MethodGet, "/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d (body %s)", rec.Code, rec.Body.String())
	}
	var user models.User
	testutil.DataField(t, testutil.DecodeEnvelope(t, rec), "data", &user)
	if user.Email != "me@example.com" {
		t.Errorf("me email = %q", user.Email)
	}

	rec = f.do(t, http.MethodPatch, "/updateMe", `{"name":"New Name"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("updateMe = %d (body %s)", rec.Code, rec.Body.String())
	}
	testutil.DataField(t, testutil.DecodeEnvelope(t, rec), "data", &user)
	if user.Name != "New Name" {
		t.Errorf("updated name = %q", user.Name)
	}

	rec = f.do(t, http.MethodPatch, "/updateMe", `{"password":"sneaky123"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("password via updateMe = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/updateMyPassword") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestUpdateMeIgnoresRoleEscalation(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "esc@example.com")

	f.do(t, http.MethodPatch, "/updateMe", `{"name":"Still Me","role":"admin"}`, token)

	rec := f.do(t, http.MethodGet, "/me", "", token)
	var user models.User
	testutil.DataField(t, testutil.DecodeEnvelope(t, rec), "data", &user)
	if user.Role != models.RoleUser {
		t.Errorf("role = %q, want %q", user.Role, models.RoleUser)
	}
}

func TestDeleteMeDeactivates(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "gone@example.com")

	rec := f.do(t, http.MethodDelete, "/deleteMe", "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deleteMe = %d", rec.Code)
	}

	// The account no longer authenticates, by token or by login.
	rec = f.do(t, http.MethodGet, "/me", "", token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after delete = %d, want 401", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/login", `{"email":"gone@example.com","password":"pass1234"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login after delete = %d, want 401", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)
	db := f.store

	adminToken := f.signup(t, "admin@example.com")
	userToken := f.signup(t, "plain@example.com")

	// Promote the first account directly; there is no API route for it.
	ctx := context.Background()
	admin, err := db.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if _, err := db.Collection().UpdateByID(ctx, admin.ID, bson.M{"role": models.RoleAdmin}); err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	t.Run("plain user is forbidden", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/", "", userToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("list = %d, want 403", rec.Code)
		}
	})

	t.Run("admin lists users", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/", "", adminToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("list = %d (body %s)", rec.Code, rec.Body.String())
		}
		env := testutil.DecodeEnvelope(t, rec)
		if env.Results == nil || *env.Results != 2 {
			t.Errorf("results = %v, want 2", env.Results)
		}
	})

	t.Run("collection POST is not defined", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/", `{"name":"X"}`, adminToken)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("create = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "/signup") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("list = %d, want 401", rec.Code)
		}
	})
}
