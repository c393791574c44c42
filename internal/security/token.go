package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// Token kinds carried in the typ claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	// ErrInvalidToken wraps every validation failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongKind is returned when a refresh token is presented as an access
	// token or the other way around.
	ErrWrongKind = errors.New("unexpected token kind")
)

// UserClaim is the "user" claim embedded in every token.
type UserClaim struct {
	ID    int64  `json:"id" mapstructure:"id"`
	Email string `json:"email" mapstructure:"email"`
	Name  string `json:"name" mapstructure:"name"`
}

// Claims is the token payload.
type Claims struct {
	User       UserClaim `json:"user"`
	Permission []string  `json:"permission,omitempty"`
	Kind       string    `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS512 tokens with a shared secret.
type TokenIssuer struct {
	secret          []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
	now             func() time.Time
}

// NewTokenIssuer requires a secret of at least 64 bytes.
func NewTokenIssuer(secret []byte, accessValidity, refreshValidity time.Duration) (*TokenIssuer, error) {
	if len(secret) < 64 {
		return nil, fmt.Errorf("jwt secret must be at least 64 bytes, got %d", len(secret))
	}
	return &TokenIssuer{
		secret:          secret,
		accessValidity:  accessValidity,
		refreshValidity: refreshValidity,
		now:             time.Now,
	}, nil
}

// AccessValidity is the lifetime of access tokens.
func (t *TokenIssuer) AccessValidity() time.Duration { return t.accessValidity }

// RefreshValidity is the lifetime of refresh tokens and the refresh cookie.
func (t *TokenIssuer) RefreshValidity() time.Duration { return t.refreshValidity }

// IssueAccess signs an access token for p.
func (t *TokenIssuer) IssueAccess(p Principal) (string, error) {
	return t.sign(p, KindAccess, t.accessValidity, []string{"ROLE_USER_CREATE", "ROLE_USER_UPDATE"})
}

// IssueRefresh signs a refresh token for p.
func (t *TokenIssuer) IssueRefresh(p Principal) (string, error) {
	return t.sign(p, KindRefresh, t.refreshValidity, nil)
}

func (t *TokenIssuer) sign(p Principal, kind string, validity time.Duration, perms []string) (string, error) {
	now := t.now()
	claims := Claims{
		User:       UserClaim{ID: p.UserID, Email: p.Email, Name: p.Name},
		Permission: perms,
		Kind:       kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(t.secret)
}

// ParseAccess validates an access token.
func (t *TokenIssuer) ParseAccess(token string) (Principal, error) {
	return t.parse(token, KindAccess)
}

// ParseRefresh validates a refresh token.
func (t *TokenIssuer) ParseRefresh(token string) (Principal, error) {
	return t.parse(token, KindRefresh)
}

func (t *TokenIssuer) parse(raw, kind string) (Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method != jwt.SigningMethodHS512 {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	if got, _ := claims["typ"].(string); got != kind {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrWrongKind)
	}

	var user UserClaim
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &user,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Principal{}, err
	}
	if err := dec.Decode(claims["user"]); err != nil {
		return Principal{}, fmt.Errorf("%w: user claim: %v", ErrInvalidToken, err)
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		subject = user.Email
	}
	return Principal{UserID: user.ID, Email: subject, Name: user.Name}, nil
}
