package routes

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mbolis/hvac-survey/app"
	"github.com/mbolis/hvac-survey/form"
	"github.com/mbolis/hvac-survey/httpx"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login trades HTTP basic credentials for a token pair.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		req := middlewares.TokenRequest(url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
		app.UserCredentials(w, req.WithContext(r.Context()))
	}
}

// Refresh trades a refresh token, sent as "Authorization: Refresh <token>",
// for a new token pair.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, middlewares.TokenRequest(url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		}))
		resp.Flush(w)
	}
}

func LoginPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := form.LoginPage{Goto: safeGoto(r.URL.Query().Get("goto"))}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		if err := page.Render(w); err != nil {
			log.Errorf("login.page.render: %s", err)
		}
	}
}

// LoginSubmit signs a browser in: the token pair is stored in cookies.
func LoginSubmit(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "login.form.parse")
			return
		}
		next := safeGoto(r.PostForm.Get("goto"))

		resp := httpx.NewResponseBuffer()
		req := middlewares.TokenRequest(url.Values{
			"grant_type": {"password"},
			"username":   {r.PostForm.Get("username")},
			"password":   {r.PostForm.Get("password")},
		})
		app.UserCredentials(resp, req.WithContext(r.Context()))
		if resp.Status() != http.StatusOK {
			log.Debugf("login.form: rejected %q (%d)", r.PostForm.Get("username"), resp.Status())
			w.Header().Set("content-type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			page := form.LoginPage{Goto: next, Message: "Wrong username or password."}
			if err := page.Render(w); err != nil {
				log.Errorf("login.form.render: %s", err)
			}
			return
		}

		if _, err := middlewares.SetCookies(w, resp.Body()); err != nil {
			httpx.LogInternalError(w, "login.form.parse_token", err)
			return
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

// safeGoto keeps redirects on this site.
func safeGoto(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/forms"
	}
	return target
}
