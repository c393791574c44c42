package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/jobhunter/internal/app/services/auth"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
)

const stateCookie = "oauth2_state"

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	res, err := h.app.Auth.Login(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeData(w, http.StatusOK, "login", res)
}

func (h *handler) account(w http.ResponseWriter, r *http.Request) {
	acct, err := h.app.Auth.Account(r.Context())
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch account", map[string]interface{}{"user": acct})
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(auth.RefreshCookie); err == nil {
		token = c.Value
	}
	res, err := h.app.Auth.Refresh(r.Context(), token)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeData(w, http.StatusOK, "get user by refresh token", res)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Auth.Logout(r.Context()); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	http.SetCookie(w, h.cookie(auth.RefreshCookie, "", -1))
	writeData(w, http.StatusOK, "logout user", nil)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	u, err := h.app.Auth.Register(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "register a new user", u)
}

func (h *handler) registerRecruiter(w http.ResponseWriter, r *http.Request) {
	var req recruiterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	u, err := h.app.Auth.RegisterRecruiter(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "register recruiter with company info", u)
}

func (h *handler) googleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleCredential
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	res, err := h.app.Auth.LoginWithGoogleIDToken(r.Context(), req.Credential)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeData(w, http.StatusOK, "login with google", res)
}

// googleAuthorize starts the authorization-code flow.
func (h *handler) googleAuthorize(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	target, err := h.app.Auth.AuthCodeURL(state)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	http.SetCookie(w, h.cookie(stateCookie, state, int((10 * time.Minute).Seconds())))
	http.Redirect(w, r, target, http.StatusFound)
}

// googleCallback finishes the flow and hands the access token to the
// frontend in the redirect URL.
func (h *handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeErr(w, r, h.log, errors.Unauthorized("google sign-in failed: "+e))
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		writeErr(w, r, h.log, errors.BadRequest("oauth2 state does not match"))
		return
	}
	http.SetCookie(w, h.cookie(stateCookie, "", -1))

	res, err := h.app.Auth.ExchangeCode(r.Context(), q.Get("code"))
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)

	target := strings.TrimRight(h.app.Config.Server.FrontendURL, "/") + "/oauth2/redirect?token=" + url.QueryEscape(res.AccessToken)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *handler) setRefreshCookie(w http.ResponseWriter, token string) {
	maxAge := int(h.app.Auth.Tokens().RefreshValidity().Seconds())
	http.SetCookie(w, h.cookie(auth.RefreshCookie, token, maxAge))
}

func (h *handler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.app.Config.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
