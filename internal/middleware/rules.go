package middleware

import (
	"net/http"
	"strings"
)

// Rule matches requests by method and path pattern. An empty Method matches
// any method. A pattern ending in "/**" matches the prefix and everything
// below it; otherwise the match is exact.
type Rule struct {
	Method  string
	Pattern string
}

// Rules is an ordered rule set.
type Rules []Rule

// AnyMethod builds rules that ignore the method.
func AnyMethod(patterns ...string) Rules {
	out := make(Rules, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, Rule{Pattern: p})
	}
	return out
}

// Match reports whether any rule matches.
func (rs Rules) Match(method, path string) bool {
	for _, r := range rs {
		if r.Match(method, path) {
			return true
		}
	}
	return false
}

func (r Rule) Match(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

// PermissionWhitelist lists the paths whose authorization is not checked
// against role permissions. Authentication still applies.
var PermissionWhitelist = AnyMethod(
	"/", "/api/v1/auth/**", "/storage/**",
	"/api/v1/companies/**", "/api/v1/jobs/**", "/api/v1/skills/**", "/api/v1/files",
	"/api/v1/resumes/**",
	"/api/v1/subscribers/**",
	"/api/v1/users/change-password",
	"/api/v1/users", "/api/v1/stats/**", "/api/v1/email", "/api/chatbot/**", "/api/v1/notifications/**",
)

// PublicRoutes may be called without a token.
var PublicRoutes = append(AnyMethod(
	"/",
	"/api/v1/auth/login",
	"/api/v1/auth/refresh",
	"/api/v1/auth/register",
	"/api/v1/auth/register-recruiter",
	"/api/v1/auth/oauth2-login",
	"/oauth2/**",
	"/login/oauth2/**",
	"/storage/**",
	"/actuator/**",
	"/metrics",
	"/v3/api-docs/**",
	"/swagger-ui/**",
	"/ws",
), Rules{
	{Method: http.MethodGet, Pattern: "/api/v1/companies/**"},
	{Method: http.MethodGet, Pattern: "/api/v1/jobs/**"},
	{Method: http.MethodGet, Pattern: "/api/v1/skills/**"},
}...)
