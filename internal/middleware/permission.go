package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// PermissionChecker decides whether a user's role grants method on a route
// template.
type PermissionChecker interface {
	Allows(ctx context.Context, userID int64, method, path string) (bool, error)
}

// PermissionMiddleware checks the matched route template against the
// caller's role. It must run as a mux middleware so the route is known.
type PermissionMiddleware struct {
	checker   PermissionChecker
	whitelist Rules
	logger    *logger.Logger
}

func NewPermissionMiddleware(checker PermissionChecker, whitelist Rules, log *logger.Logger) *PermissionMiddleware {
	if log == nil {
		log = logger.NewDefault("permission")
	}
	return &PermissionMiddleware{checker: checker, whitelist: whitelist, logger: log}
}

func (m *PermissionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := security.PrincipalFrom(r.Context())
		if !ok || m.whitelist.Match(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		allowed, err := m.checker.Allows(r.Context(), p.UserID, r.Method, path)
		if err != nil {
			httputil.WriteError(w, r, m.logger, err)
			return
		}
		if !allowed {
			m.logger.LogSecurityEvent(r.Context(), "permission_denied", map[string]interface{}{
				"method": r.Method,
				"route":  path,
			})
			httputil.WriteError(w, r, nil, errors.Forbidden("you do not have permission to access this endpoint"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
