// Package middleware provides HTTP middleware for the jobhunter API
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccess(token string) (security.Principal, error)
}

// AuthMiddleware authenticates bearer tokens. Requests without a token are
// let through only when they match a public rule.
type AuthMiddleware struct {
	tokens TokenParser
	public Rules
	logger *logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens TokenParser, public Rules, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &AuthMiddleware{tokens: tokens, public: public, logger: log}
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, present, err := bearer(r)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		if !present {
			if m.public.Match(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			m.respondError(w, r, errors.Unauthorized("authentication is required to access this resource"))
			return
		}

		p, err := m.tokens.ParseAccess(raw)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, errors.InvalidToken(err))
			return
		}

		ctx := security.WithPrincipal(r.Context(), p)
		ctx = logger.WithUser(ctx, strconv.FormatInt(p.UserID, 10), p.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearer(r *http.Request) (string, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false, errors.Unauthorized("invalid Authorization header format")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	se := httputil.Classify(err)
	httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
	m.logger.LogSecurityEvent(r.Context(), "authentication_failed", map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": se.HTTPStatus,
	})
}
