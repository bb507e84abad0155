package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oskarlind/microblog-api/internal/config"
	"github.com/oskarlind/microblog-api/internal/middleware"
	"github.com/oskarlind/microblog-api/internal/model"
	"github.com/oskarlind/microblog-api/internal/repository"
	"github.com/oskarlind/microblog-api/internal/utils"
)

// --- fakes ---

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, byID: map[uint64]model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, username, password string, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, username) {
			return 0, repository.ErrUsernameTaken
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := f.nextID
	f.nextID++
	f.byID[id] = model.User{ID: id, Username: username, PasswordHash: hash}
	return id, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeTokens struct {
	mu      sync.Mutex
	nextID  uint64
	byToken map[string]model.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{nextID: 1, byToken: map[string]model.RefreshToken{}}
}

func (f *fakeTokens) CreateRefresh(_ context.Context, userID uint64, ttlDays int) (model.RefreshToken, error) {
	value, err := utils.NewRefreshTokenValue()
	if err != nil {
		return model.RefreshToken{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rt := model.RefreshToken{
		ID:        f.nextID,
		UserID:    userID,
		Token:     value,
		ExpiresAt: utils.RefreshExpiry(ttlDays),
	}
	f.nextID++
	f.byToken[value] = rt
	return rt, nil
}

func (f *fakeTokens) GetValidRefresh(_ context.Context, token string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.byToken[token]
	if !ok || !rt.ExpiresAt.After(time.Now().UTC()) {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	return rt, nil
}

func (f *fakeTokens) Rotate(_ context.Context, rt *model.RefreshToken, ttlDays int) error {
	value, err := utils.NewRefreshTokenValue()
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, rt.Token)
	rt.Token = value
	rt.ExpiresAt = utils.RefreshExpiry(ttlDays)
	f.byToken[value] = *rt
	return nil
}

func (f *fakeTokens) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, token)
	return nil
}

func (f *fakeTokens) DeleteAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok, rt := range f.byToken {
		if rt.UserID == userID {
			delete(f.byToken, tok)
		}
	}
	return nil
}

// --- helpers ---

func testCfg() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		JWTAlgorithm:   "HS256",
		AccessTTLMin:   15,
		RefreshTTLDays: 14,
		RefreshCookie:  "refresh_token",
		BcryptCost:     bcrypt.MinCost,
		PasswordMinLen: 8,
	}
}

func newAuthEnv() (*AuthHandler, *fakeUsers, *fakeTokens) {
	users := newFakeUsers()
	tokens := newFakeTokens()
	return NewAuthHandler(testCfg(), users, tokens), users, tokens
}

// call invokes an echo handler with a JSON request and returns the recorder.
func call(t *testing.T, h echo.HandlerFunc, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("no %s cookie in response", name)
	return nil
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// --- tests ---

// TestSessionLifecycle walks the whole token lifecycle: register, login,
// rotate via refresh cookie, replay of the pre-rotation cookie, logout
// and replay after logout.
func TestSessionLifecycle(t *testing.T) {
	h, _, tokens := newAuthEnv()

	// Register.
	rec := call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"alice","password":"longpassword1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Login yields an access token and the first refresh cookie.
	rec = call(t, h.Login, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"longpassword1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := jsonBody(t, rec)
	accessA, _ := body["access_token"].(string)
	require.NotEmpty(t, accessA)
	r1 := refreshCookieFrom(t, rec, "refresh_token")
	assert.True(t, r1.HttpOnly)
	assert.True(t, r1.Secure)
	assert.Equal(t, http.SameSiteStrictMode, r1.SameSite)

	// The access token resolves back to alice's user id.
	claims, err := utils.ParseAccessToken("test-secret", accessA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)

	// Refresh with R1 rotates: new access token, new cookie value.
	rec = call(t, h.Token, http.MethodGet, "/auth/token", "", r1)
	require.Equal(t, http.StatusOK, rec.Code)
	accessB, _ := jsonBody(t, rec)["access_token"].(string)
	require.NotEmpty(t, accessB)
	assert.NotEqual(t, accessA, accessB)
	r2 := refreshCookieFrom(t, rec, "refresh_token")
	assert.NotEqual(t, r1.Value, r2.Value)

	// Replaying the pre-rotation cookie is a miss.
	rec = call(t, h.Token, http.MethodGet, "/auth/token", "", r1)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout with R2 deletes the row and expires the cookie.
	rec = call(t, h.Logout, http.MethodPost, "/auth/logout", "", r2)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookieFrom(t, rec, "refresh_token")
	assert.Less(t, cleared.MaxAge, 0)
	assert.Empty(t, tokens.byToken)

	// R2 no longer refreshes.
	rec = call(t, h.Token, http.MethodGet, "/auth/token", "", r2)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	h, users, _ := newAuthEnv()

	rec := call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"bob","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs, ok := jsonBody(t, rec)["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "password")
	assert.Empty(t, users.byID, "no user row may be created on a policy failure")
}

func TestRegisterUsernamePolicy(t *testing.T) {
	h, _, _ := newAuthEnv()

	for _, username := range []string{"ab", "bad name", ""} {
		rec := call(t, h.Register, http.MethodPost, "/auth/register",
			`{"username":"`+username+`","password":"longpassword1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, username)
		errs, _ := jsonBody(t, rec)["errors"].(map[string]any)
		assert.Contains(t, errs, "username")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, _, _ := newAuthEnv()

	rec := call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"alice","password":"longpassword1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same name, different case: usernames compare case-insensitively.
	rec = call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"Alice","password":"longpassword1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs, _ := jsonBody(t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "username")
}

// TestLoginFailureShape checks that a wrong password and an unknown
// username are indistinguishable to the client.
func TestLoginFailureShape(t *testing.T) {
	h, _, _ := newAuthEnv()

	rec := call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"alice","password":"longpassword1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPass := call(t, h.Login, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"wrongpassword"}`)
	noUser := call(t, h.Login, http.MethodPost, "/auth/login",
		`{"username":"mallory","password":"wrongpassword"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	assert.Equal(t, wrongPass.Body.String(), noUser.Body.String())
}

func TestTokenWithoutCookie(t *testing.T) {
	h, _, _ := newAuthEnv()

	rec := call(t, h.Token, http.MethodGet, "/auth/token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithoutCookie(t *testing.T) {
	h, _, _ := newAuthEnv()

	rec := call(t, h.Logout, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestLogoutAllRevokesEverySession logs in twice (two devices, two
// refresh rows) and checks logout-all kills both while leaving other
// users' sessions alone.
func TestLogoutAllRevokesEverySession(t *testing.T) {
	h, _, tokens := newAuthEnv()

	for _, name := range []string{"alice", "mallory"} {
		rec := call(t, h.Register, http.MethodPost, "/auth/register",
			`{"username":"`+name+`","password":"longpassword1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	login := func(name string) *http.Cookie {
		rec := call(t, h.Login, http.MethodPost, "/auth/login",
			`{"username":"`+name+`","password":"longpassword1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		return refreshCookieFrom(t, rec, "refresh_token")
	}
	a1 := login("alice")
	a2 := login("alice")
	m := login("mallory")
	require.Len(t, tokens.byToken, 3)

	rec := authCall(t, h.LogoutAll, http.MethodPost, "/auth/logout-all", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookieFrom(t, rec, "refresh_token")
	assert.Less(t, cleared.MaxAge, 0)

	// Both of alice's cookies are dead; mallory's still rotates.
	for _, ck := range []*http.Cookie{a1, a2} {
		rec := call(t, h.Token, http.MethodGet, "/auth/token", "", ck)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec = call(t, h.Token, http.MethodGet, "/auth/token", "", m)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenExpiredRefreshIsAMiss(t *testing.T) {
	h, _, tokens := newAuthEnv()

	// Plant a token that has already expired.
	tokens.byToken["expired"] = model.RefreshToken{
		ID: 1, UserID: 1, Token: "expired",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}

	rec := call(t, h.Token, http.MethodGet, "/auth/token", "",
		&http.Cookie{Name: "refresh_token", Value: "expired"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestCheckAuthThroughMiddleware exercises the bearer path end to end:
// login, then hit check-auth behind the JWT middleware.
func TestCheckAuthThroughMiddleware(t *testing.T) {
	h, _, _ := newAuthEnv()

	rec := call(t, h.Register, http.MethodPost, "/auth/register",
		`{"username":"alice","password":"longpassword1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = call(t, h.Login, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"longpassword1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	access, _ := jsonBody(t, rec)["access_token"].(string)

	protected := middleware.JWTAuth("test-secret")(h.CheckAuth)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/check-auth", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	out := httptest.NewRecorder()
	require.NoError(t, protected(e.NewContext(req, out)))
	require.Equal(t, http.StatusOK, out.Code)
	user, _ := jsonBody(t, out)["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])

	// Both a missing and a garbage bearer token come back 401.
	for _, header := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/check-auth", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		out := httptest.NewRecorder()
		require.NoError(t, protected(e.NewContext(req, out)))
		assert.Equal(t, http.StatusUnauthorized, out.Code)
	}
}
