package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, "Create a new user", map[string]int{"id": 1})

	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusCreated || env["statusCode"].(float64) != 201 {
		t.Fatalf("unexpected status %d %v", rec.Code, env["statusCode"])
	}
	if env["message"] != "Create a new user" || env["error"] != nil {
		t.Fatalf("unexpected envelope %v", env)
	}
}

func TestWriteErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.Forbidden(""), http.StatusForbidden},
		{fmt.Errorf("user 3: %w", storage.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("dup: %w", storage.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: unknown filter field", query.ErrInvalid), http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil, tc.err)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}

	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil, fmt.Errorf("secret dsn leaked"))
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("internal cause exposed: %s", rec.Body.String())
	}
}

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestDecodeJSONValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"123"}`))
	var dst signup
	err := DecodeJSON(req, &dst)
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := se.Details["fields"].(map[string]string)
	if _, ok := fields["email"]; !ok {
		t.Fatalf("expected json field names, got %v", fields)
	}
	if _, ok := fields["password"]; !ok {
		t.Fatalf("expected password error, got %v", fields)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := DecodeJSON(req, &dst); errors.GetServiceError(err).Code != errors.CodeBadRequest {
		t.Fatalf("expected bad request for malformed json, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","password":"123456"}`))
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("valid body: %v", err)
	}
}

func TestListOptionsAndPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs?filter=name~'go'&page=2&size=500&sort=salary,desc", nil)
	opts, err := ListOptions(req)
	if err != nil {
		t.Fatalf("list options: %v", err)
	}
	if opts.Filter == nil || opts.Page.Number != 2 || opts.Page.Size != query.MaxPageSize {
		t.Fatalf("unexpected options %+v", opts)
	}

	bad := httptest.NewRequest(http.MethodGet, "/jobs?page=0", nil)
	if _, err := ListOptions(bad); err == nil {
		t.Fatalf("expected invalid page to fail")
	}

	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/12", nil), map[string]string{"id": "12"})
	if id, err := PathID(req); err != nil || id != 12 {
		t.Fatalf("PathID = %d, %v", id, err)
	}
	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/x", nil), map[string]string{"id": "x"})
	if _, err := PathID(req); err == nil {
		t.Fatalf("expected non numeric id to fail")
	}
}
