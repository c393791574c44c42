package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/R3E-Network/jobhunter/internal/app"
	"github.com/R3E-Network/jobhunter/internal/config"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.JWT.Base64Secret = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 64)))
	cfg.Scheduler.Enabled = false
	cfg.RateLimit.Burst = 1000
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	application, err := app.New(app.Stores{}, app.Deps{Config: cfg}, nil)
	require.NoError(t, err)
	_, err = application.Seed(context.Background(), Catalogue())
	require.NoError(t, err)
	return &testServer{t: t, handler: NewHandler(application, nil)}
}

func (s *testServer) do(method, path, token string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (s *testServer) login(email, password string) (string, *http.Cookie) {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": email, "password": password})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(s.t, res.AccessToken)

	var refresh *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			refresh = c
		}
	}
	require.NotNil(s.t, refresh, "login must set the refresh cookie")
	assert.True(s.t, refresh.HttpOnly)
	return res.AccessToken, refresh
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/api/v1/jobs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 200, env.StatusCode)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	rec, env = s.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, env.StatusCode)

	rec, _ = s.do(http.MethodGet, "/api/v1/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 404, env.StatusCode)

	rec, env = s.do(http.MethodPatch, "/api/v1/jobs", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/jobs?page=92233720368547760&size=100", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, 400, env.StatusCode)
}

func TestAdminCatalogFlow(t *testing.T) {
	s := newTestServer(t)
	token, refresh := s.login("admin@gmail.com", "123456")

	rec, env := s.do(http.MethodPost, "/api/v1/skills", token, map[string]string{"name": "Go"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sk struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sk))
	assert.Equal(t, "Go", sk.Name)

	rec, _ = s.do(http.MethodPost, "/api/v1/skills", token, map[string]string{"name": "Go"})
	assert.Equal(t, http.StatusConflict, rec.Code, "duplicate skill names are refused")

	rec, _ = s.do(http.MethodPost, "/api/v1/skills", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/skills?page=1&size=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
		Result []json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Result, 1)

	rec, _ = s.do(http.MethodGet, "/api/v1/skills/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/companies", token, map[string]string{"name": "Acme", "address": "Hanoi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = s.do(http.MethodGet, "/api/v1/jobs/count-pending", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"count":0}`, string(env.Data))

	rec, env = s.do(http.MethodGet, "/api/v1/auth/account", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), "admin@gmail.com")

	rec, _ = s.do(http.MethodGet, "/api/v1/auth/refresh", "", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout expires the refresh cookie")
}

func TestCandidatePermissions(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"name": "Ann", "email": "ann@example.com", "password": "secret1", "age": 25,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, _ := s.login("ann@example.com", "secret1")

	rec, env := s.do(http.MethodGet, "/api/v1/roles", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 403, env.StatusCode)

	rec, _ = s.do(http.MethodDelete, "/api/v1/permissions/1", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/subscribers/1", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/notifications/unread", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodPost, "/api/v1/users/change-password", token, map[string]string{
		"oldPassword": "secret1", "newPassword": "secret2",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.login("ann@example.com", "secret2")
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login("admin@gmail.com", "123456")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("folder", "resume"))
	fw, err := mw.CreateFormFile("file", "payload.exe")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "invalid file extension")
}

func TestDocsHealthAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodGet, "/v3/api-docs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/api/v1/jobs/{id}")
	assert.Contains(t, doc.Paths, "/api/chatbot/ask")

	rec, _ = s.do(http.MethodGet, "/swagger-ui", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SwaggerUIBundle")

	rec, _ = s.do(http.MethodGet, "/actuator/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"UP"`)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	out := httptest.NewRecorder()
	s.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusNoContent, out.Code)
	assert.Equal(t, "http://localhost:3000", out.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalogueIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Catalogue() {
		key := p.Method + " " + p.APIPath
		require.False(t, seen[key], "duplicate permission %s", key)
		seen[key] = true
		require.NotEmpty(t, p.Module)
	}
	assert.True(t, seen["GET /api/v1/jobs/{id}"])
}

func TestOpenAPIPath(t *testing.T) {
	assert.Equal(t, "/a/{id}/b", openAPIPath("/a/{id:[0-9]+}/b"))
	assert.Equal(t, []string{"companyId"}, pathParams("/api/v1/stats/company/{companyId}"))
	assert.Equal(t, "fetchJobById", operationID(Route{Name: "Fetch job by id"}))
}
