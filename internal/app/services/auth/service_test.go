package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/services/companies"
	"github.com/R3E-Network/jobhunter/internal/app/services/roles"
	"github.com/R3E-Network/jobhunter/internal/app/services/users"
	"github.com/R3E-Network/jobhunter/internal/app/storage/memory"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/security"
)

func newService(t *testing.T, google GoogleConfig) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	_, err := roles.New(store, store, store, nil).Seed(ctx, []role.Permission{
		{Name: "List jobs", APIPath: "/api/v1/jobs", Method: "GET", Module: "JOBS"},
	}, roles.Admin{Email: "admin@x.io", Password: "123456"})
	require.NoError(t, err)

	tokens, err := security.NewTokenIssuer([]byte(strings.Repeat("k", 64)), time.Hour, 24*time.Hour)
	require.NoError(t, err)
	us := users.New(store, store, store, store, nil)
	cs := companies.New(store, store, store, nil)
	return New(us, cs, store, tokens, google, nil), store
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	svc, _ := newService(t, GoogleConfig{})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, u.Role)
	assert.Equal(t, role.User, u.Role.Name)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.Error(t, err)

	_, err = svc.Login(ctx, LoginRequest{Username: "ann@x.io", Password: "wrong"})
	assert.Equal(t, errors.CodeUnauthorized, errors.GetServiceError(err).Code)

	res, err := svc.Login(ctx, LoginRequest{Username: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	require.NotNil(t, res.User.Role)
	assert.Equal(t, role.User, res.User.Role.Name)

	p, err := svc.Tokens().ParseAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.io", p.Email)

	_, err = svc.Refresh(ctx, "")
	assert.Contains(t, err.Error(), "refresh token is missing")

	forged, _ := svc.Tokens().IssueRefresh(security.Principal{UserID: u.ID, Email: "ann@x.io", Name: "other"})
	_, err = svc.Refresh(ctx, forged)
	require.Error(t, err, "a refresh token that is not the stored one must be refused")

	rotated, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	authed := security.WithPrincipal(ctx, p)
	account, err := svc.Account(authed)
	require.NoError(t, err)
	assert.Equal(t, "Ann", account.Name)

	require.NoError(t, svc.Logout(authed))
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.Error(t, err)
	require.Error(t, svc.Logout(ctx))
}

func TestRegisterRecruiterCreatesCompany(t *testing.T) {
	svc, store := newService(t, GoogleConfig{})
	ctx := context.Background()

	u, err := svc.RegisterRecruiter(ctx, RecruiterRequest{
		Name: "Hana", Email: "hr@acme.io", Password: "secret1", CompanyName: "Acme", CompanyAddress: "Hanoi",
	})
	require.NoError(t, err)
	require.NotNil(t, u.CompanyID)
	require.NotNil(t, u.Role)
	assert.Equal(t, role.HR, u.Role.Name)

	c, err := store.GetCompany(ctx, *u.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "hr@acme.io", c.CreatedBy)

	_, err = svc.RegisterRecruiter(ctx, RecruiterRequest{Name: "x", Email: "hr@acme.io", Password: "secret1", CompanyName: "Other"})
	require.Error(t, err)
}

func TestGoogleIDTokenLogin(t *testing.T) {
	svc, _ := newService(t, GoogleConfig{ClientID: "client"})
	claims := map[string]interface{}{"email": "g@x.io", "email_verified": true, "name": "Gee", "picture": "http://pic"}
	svc.WithIDTokenValidator(func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		assert.Equal(t, "client", audience)
		return &idtoken.Payload{Audience: audience, Claims: claims}, nil
	})
	ctx := context.Background()

	res, err := svc.LoginWithGoogleIDToken(ctx, "cred")
	require.NoError(t, err)
	assert.Equal(t, "g@x.io", res.User.Email)
	assert.Equal(t, "http://pic", res.User.Avatar)

	again, err := svc.LoginWithGoogleIDToken(ctx, "cred")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID, "second login reuses the account")

	claims["email_verified"] = false
	_, err = svc.LoginWithGoogleIDToken(ctx, "cred")
	require.Error(t, err)

	_, err = svc.LoginWithGoogleIDToken(ctx, "")
	require.Error(t, err)
}

func TestAuthorizationCodeFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("code") != "the-code" {
			http.Error(w, "bad code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(googleProfile{Email: "code@x.io", EmailVerified: true, Name: "Cody"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, _ := newService(t, GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/login/oauth2/code/google",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		UserInfoURL:  srv.URL + "/userinfo",
	})

	url, err := svc.AuthCodeURL("state-1")
	require.NoError(t, err)
	assert.Contains(t, url, "state=state-1")
	assert.True(t, strings.HasPrefix(url, srv.URL+"/auth"))

	res, err := svc.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "code@x.io", res.User.Email)
	assert.NotEmpty(t, res.AccessToken)

	_, err = svc.ExchangeCode(context.Background(), "wrong")
	require.Error(t, err)
}

func TestDeactivatedUserCannotRefreshOrUseGoogle(t *testing.T) {
	svc, store := newService(t, GoogleConfig{ClientID: "client"})
	svc.WithIDTokenValidator(func(_ context.Context, _, audience string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Audience: audience, Claims: map[string]interface{}{"email": "ann@x.io", "email_verified": true}}, nil
	})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, LoginRequest{Username: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.users.Delete(ctx, u.ID))
	stored, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken, "deleting a user forgets the refresh token")

	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.Error(t, err)

	_, err = svc.LoginWithGoogleIDToken(ctx, "cred")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.GetServiceError(err).Code)

	// a token stored before deactivation is refused as well
	require.NoError(t, svc.users.SetRefreshToken(ctx, "ann@x.io", res.RefreshToken))
	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.Error(t, err)
}
