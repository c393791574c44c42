// Package auth signs users in with a password, a Google ID token or the
// Google authorization code flow, and rotates their JWTs.
package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/services/companies"
	"github.com/R3E-Network/jobhunter/internal/app/services/users"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// RefreshCookie is the name of the cookie carrying the refresh token.
const RefreshCookie = "refresh_token"

// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint.
const DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// IDTokenValidator verifies a Google ID token for audience.
type IDTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleConfig configures Google sign-in. A zero Endpoint selects Google's.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool { return g.ClientID != "" }

// UserLogin is the account summary returned with tokens.
type UserLogin struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      *role.Role  `json:"role"`
	CompanyID *int64      `json:"companyId"`
	Avatar    string      `json:"avatar"`
	CV        string      `json:"cv"`
	Gender    user.Gender `json:"gender"`
	Address   string      `json:"address"`
	Age       int         `json:"age"`
}

// LoginResult is returned by every sign-in. RefreshToken travels in a cookie.
type LoginResult struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"-"`
	User         UserLogin `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Age      int         `json:"age" validate:"gte=0,lte=150"`
	Gender   user.Gender `json:"gender"`
	Address  string      `json:"address"`
}

type RecruiterRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	CompanyName    string `json:"companyName" validate:"required"`
	CompanyAddress string `json:"companyAddress"`
}

// Service issues tokens for users.
type Service struct {
	users     *users.Service
	companies *companies.Service
	roles     storage.RoleStore
	tokens    *security.TokenIssuer
	google    GoogleConfig
	oauth     *oauth2.Config
	validate  IDTokenValidator
	log       *logger.Logger
}

func New(us *users.Service, cs *companies.Service, roles storage.RoleStore, tokens *security.TokenIssuer, google GoogleConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	s := &Service{
		users:     us,
		companies: cs,
		roles:     roles,
		tokens:    tokens,
		google:    google,
		validate:  idtoken.Validate,
		log:       log,
	}
	s.oauth = oauthConfig(google)
	return s
}

// WithIDTokenValidator replaces the Google ID token verification.
func (s *Service) WithIDTokenValidator(v IDTokenValidator) *Service {
	s.validate = v
	return s
}

func oauthConfig(g GoogleConfig) *oauth2.Config {
	endpoint := g.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoint,
	}
}

// Tokens exposes the issuer, e.g. for cookie lifetimes.
func (s *Service) Tokens() *security.TokenIssuer { return s.tokens }

// Login checks a password and issues tokens.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Username))
	if err != nil || !u.Active || !security.CheckPassword(u.PasswordHash, req.Password) {
		s.log.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"username": req.Username})
		return LoginResult{}, errors.Unauthorized("bad credentials")
	}
	return s.issue(ctx, u)
}

// Account returns the profile of the signed in user.
func (s *Service) Account(ctx context.Context) (UserLogin, error) {
	email := security.CurrentEmail(ctx)
	if email == "" {
		return UserLogin{}, errors.Unauthorized("authentication required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return UserLogin{}, err
	}
	return s.view(ctx, u), nil
}

// Refresh rotates both tokens. The presented token must be the one stored
// for its subject.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	if refreshToken == "" {
		return LoginResult{}, errors.BadRequest("refresh token is missing")
	}
	p, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return LoginResult{}, errors.InvalidToken(err)
	}
	u, err := s.users.GetByEmail(ctx, p.Email)
	if err != nil || !u.Active || u.RefreshToken != refreshToken {
		return LoginResult{}, errors.BadRequest("refresh token is invalid")
	}
	return s.issue(ctx, u)
}

// Logout forgets the refresh token of the caller.
func (s *Service) Logout(ctx context.Context) error {
	email := security.CurrentEmail(ctx)
	if email == "" {
		return errors.Unauthorized("access token is invalid")
	}
	return s.users.SetRefreshToken(ctx, email, "")
}

// Register creates a candidate account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (user.User, error) {
	if exists, err := s.users.EmailExists(ctx, req.Email); err != nil {
		return user.User{}, err
	} else if exists {
		return user.User{}, errors.BadRequest("email %s already exists, please use another email", req.Email)
	}
	return s.users.Create(ctx, users.CreateRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
		Gender:   req.Gender,
		Address:  req.Address,
		RoleID:   s.roleID(ctx, role.User),
	})
}

// RegisterRecruiter creates a company and its first recruiter.
func (s *Service) RegisterRecruiter(ctx context.Context, req RecruiterRequest) (user.User, error) {
	if exists, err := s.users.EmailExists(ctx, req.Email); err != nil {
		return user.User{}, err
	} else if exists {
		return user.User{}, errors.BadRequest("email %s already exists", req.Email)
	}
	hr := s.roleID(ctx, role.HR)
	if hr == nil {
		return user.User{}, errors.BadRequest("recruiter role does not exist")
	}
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return user.User{}, errors.BadRequest("%v", err)
	}
	c, err := s.companies.Create(ctx, companies.Request{Name: req.CompanyName, Address: req.CompanyAddress}, req.Email)
	if err != nil {
		return user.User{}, err
	}
	return s.users.Insert(ctx, user.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Active:       true,
		CompanyID:    &c.ID,
		RoleID:       hr,
		CreatedBy:    req.Email,
	})
}

// LoginWithGoogleIDToken signs in with a Google credential from the browser
// SDK, creating the account on first use.
func (s *Service) LoginWithGoogleIDToken(ctx context.Context, credential string) (LoginResult, error) {
	if strings.TrimSpace(credential) == "" {
		return LoginResult{}, errors.BadRequest("id token must not be empty")
	}
	if !s.google.Enabled() {
		return LoginResult{}, errors.BadRequest("google sign-in is not configured")
	}
	payload, err := s.validate(ctx, credential, s.google.ClientID)
	if err != nil {
		s.log.LogSecurityEvent(ctx, "google_token_rejected", map[string]interface{}{"reason": err.Error()})
		return LoginResult{}, errors.BadRequest("id token is invalid")
	}
	email, _ := payload.Claims["email"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		return LoginResult{}, errors.BadRequest("email is not verified by google")
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	u, err := s.findOrCreate(ctx, googleProfile{Email: email, Name: name, Picture: picture})
	if err != nil {
		return LoginResult{}, err
	}
	return s.issue(ctx, u)
}

// AuthCodeURL is where the browser is sent to start the code flow.
func (s *Service) AuthCodeURL(state string) (string, error) {
	if !s.google.Enabled() {
		return "", errors.BadRequest("google sign-in is not configured")
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

type googleProfile struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// ExchangeCode finishes the code flow: it redeems code, reads the Google
// profile and signs the user in.
func (s *Service) ExchangeCode(ctx context.Context, code string) (LoginResult, error) {
	if code == "" {
		return LoginResult{}, errors.BadRequest("authorization code is missing")
	}
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return LoginResult{}, errors.Upstream("google token exchange failed", err)
	}
	infoURL := s.google.UserInfoURL
	if infoURL == "" {
		infoURL = DefaultUserInfoURL
	}
	client := httputil.NewClient(httputil.ClientConfig{HTTPClient: s.oauth.Client(ctx, tok), Attempts: 2})
	var profile googleProfile
	if err := client.GetJSON(ctx, infoURL, &profile, nil); err != nil {
		return LoginResult{}, errors.Upstream("google userinfo failed", err)
	}
	if profile.Email == "" {
		return LoginResult{}, errors.BadRequest("google account has no email")
	}
	u, err := s.findOrCreate(ctx, profile)
	if err != nil {
		return LoginResult{}, err
	}
	return s.issue(ctx, u)
}

func (s *Service) findOrCreate(ctx context.Context, p googleProfile) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, p.Email)
	if err == nil {
		if !u.Active {
			return user.User{}, errors.Unauthorized("account is deactivated")
		}
		return u, nil
	}
	if se := errors.GetServiceError(err); se == nil || se.Code != errors.CodeNotFound {
		return user.User{}, err
	}
	hash, err := security.HashPassword(security.RandomPassword())
	if err != nil {
		return user.User{}, err
	}
	return s.users.Insert(ctx, user.User{
		Name:         p.Name,
		Email:        p.Email,
		Avatar:       p.Picture,
		PasswordHash: hash,
		Gender:       user.GenderMale,
		Active:       true,
		RoleID:       s.roleID(ctx, role.User),
		CreatedBy:    p.Email,
	})
}

func (s *Service) issue(ctx context.Context, u user.User) (LoginResult, error) {
	p := security.Principal{UserID: u.ID, Email: u.Email, Name: u.Name}
	access, err := s.tokens.IssueAccess(p)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(p)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.users.SetRefreshToken(ctx, u.Email, refresh); err != nil {
		return LoginResult{}, err
	}
	s.log.WithContext(ctx).WithField("user_id", u.ID).Info("user signed in")
	return LoginResult{AccessToken: access, RefreshToken: refresh, User: s.view(ctx, u)}, nil
}

func (s *Service) view(ctx context.Context, u user.User) UserLogin {
	v := UserLogin{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CompanyID: u.CompanyID,
		Avatar:    u.Avatar,
		CV:        u.CV,
		Gender:    u.Gender,
		Address:   u.Address,
		Age:       u.Age,
	}
	if u.RoleID != nil {
		if r, err := s.roles.GetRole(ctx, *u.RoleID); err == nil {
			v.Role = &r
		}
	}
	return v
}

func (s *Service) roleID(ctx context.Context, name string) *int64 {
	r, err := s.roles.GetRoleByName(ctx, name)
	if err != nil {
		return nil
	}
	return &r.ID
}
