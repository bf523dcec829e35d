package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/account"
	"docchat/internal/config"
)

type fakeAnswerer struct {
	answer string
	err    error
}

func (f *fakeAnswerer) Answer(context.Context, string) (string, error) {
	return f.answer, f.err
}

type fakeAccounts struct {
	signupErr error
	token     string
	loginErr  error
}

func (f *fakeAccounts) Signup(context.Context, string, string, string) error {
	return f.signupErr
}

func (f *fakeAccounts) Login(context.Context, string, string) (string, error) {
	return f.token, f.loginErr
}

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{CORSOrigin: "http://localhost:3000", RateLimit: 100, RateBurst: 100}
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestQuery_OK(t *testing.T) {
	h := New(&fakeAnswerer{answer: "Paris."}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/chat/query", `{"question":"What is the capital of France?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Paris.", decodeBody(t, rec)["answer"])
}

func TestQuery_SynthesisFailureReturns500WithDetail(t *testing.T) {
	h := New(&fakeAnswerer{err: errors.New("provider unavailable")}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/chat/query", `{"question":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "provider unavailable")
}

func TestQuery_EmptyQuestion(t *testing.T) {
	h := New(&fakeAnswerer{answer: "x"}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/chat/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_MalformedBody(t *testing.T) {
	h := New(&fakeAnswerer{answer: "x"}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/chat/query", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignup_OK(t *testing.T) {
	h := New(&fakeAnswerer{}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/signup", `{"username":"alice","email":"alice@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User created successfully", decodeBody(t, rec)["msg"])
}

func TestSignup_Duplicate(t *testing.T) {
	h := New(&fakeAnswerer{}, &fakeAccounts{signupErr: account.ErrAccountExists}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/signup", `{"username":"alice","email":"alice@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Account already exists", decodeBody(t, rec)["detail"])
}

func TestSignup_MissingFields(t *testing.T) {
	h := New(&fakeAnswerer{}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/signup", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_OK(t *testing.T) {
	h := New(&fakeAnswerer{}, &fakeAccounts{token: "signed-token"}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/login", `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "signed-token", body["access_token"])
	assert.Equal(t, "alice", body["username"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := New(&fakeAnswerer{}, &fakeAccounts{loginErr: account.ErrInvalidCredentials}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/login", `{"username":"alice","password":"nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username or password is incorrect", decodeBody(t, rec)["detail"])
}

func TestHealth(t *testing.T) {
	h := New(&fakeAnswerer{}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_HeadersAndPreflight(t *testing.T) {
	h := New(&fakeAnswerer{answer: "x"}, &fakeAccounts{}, testConfig())

	rec := doJSON(t, h, http.MethodPost, "/chat/query", `{"question":"q"}`)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/chat/query", nil)
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := &config.ServerConfig{CORSOrigin: "*", RateLimit: 1, RateBurst: 1}
	h := New(&fakeAnswerer{}, &fakeAccounts{}, cfg)

	first := doJSON(t, h, http.MethodGet, "/health", "")
	second := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
