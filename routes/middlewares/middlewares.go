package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Authenticated accepts any valid OAuth token signed with secret.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return oauth.Authorize(secret, nil)
}

// Admin checks for the 'admin' role in an OAuth token signed with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		for _, role := range strings.Split(claims["roles"], ",") {
			if strings.TrimSpace(role) == "admin" {
				next.ServeHTTP(w, r)
				return
			}
		}
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "auth.admin")
	})
}

// CookieAuth lets browsers authenticate GET requests with the token
// cookies set at login. An expired access token is refreshed on the fly;
// without a valid refresh token the browser is sent to the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") != "" {
				h.ServeHTTP(w, r)
				return
			}

			if token, err := r.Cookie(AccessTokenCookie); err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				if r.Method != http.MethodGet {
					h.ServeHTTP(w, r)
					return
				}
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)

			refreshToken, err := r.Cookie(RefreshTokenCookie)
			if err != nil {
				http.Redirect(w, r, loginLocation, http.StatusSeeOther)
				return
			}

			resp := httpx.NewResponseBuffer()
			bearerServer.UserCredentials(resp, TokenRequest(url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {refreshToken.Value},
			}))
			if resp.Status() == http.StatusUnauthorized {
				ClearCookies(w)
				http.Redirect(w, r, loginLocation, http.StatusSeeOther)
				return
			}
			if resp.Status() != http.StatusOK {
				httpx.LogStatus(w, resp.Status(), log.WarnLevel, "auth.cookie.refresh")
				return
			}

			access, err := SetCookies(w, resp.Body())
			if err != nil {
				httpx.LogInternalError(w, "auth.cookie.parse_token", err)
				return
			}
			r.Header.Set("authorization", "Bearer "+access)
			h.ServeHTTP(w, r)
		})
	}
}

// TokenRequest builds the form request the bearer server expects.
func TokenRequest(body url.Values) *http.Request {
	encoded := body.Encode()
	req, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(encoded))
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(encoded)))
	return req
}

// SetCookies stores the tokens of a bearer server response as cookies and
// returns the access token.
func SetCookies(w http.ResponseWriter, tokenResponse []byte) (string, error) {
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(tokenResponse, &body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errors.New("no access token")
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     AccessTokenCookie,
		Value:    body.AccessToken,
		MaxAge:   int(body.ExpiresIn),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     RefreshTokenCookie,
		Value:    body.RefreshToken,
		MaxAge:   60 * 60 * 24 * 365,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return body.AccessToken, nil
}

func ClearCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Path:   "/",
			Name:   name,
			Value:  "",
			MaxAge: -1,
		})
	}
}
