package webapp

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/zeptools/gw-contracts/requests"
	"github.com/zeptools/gw-contracts/users"
	"github.com/zeptools/gw-contracts/web/session"
)

type loginPage struct {
	pageBase
	Username string
	Error    string
}

func (a *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Sessions.Load(r.Context(), r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.render(w, http.StatusOK, "login", loginPage{pageBase: pageBase{Title: "Login"}})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := requests.GetClientIP(r, a.TrustProxy)
	page := loginPage{pageBase: pageBase{Title: "Login"}, Username: r.PostFormValue("username")}
	if !a.Throttle.Allow(loginBucketGroup, ip, time.Now()) {
		log.Printf("[WARN][AUTH] login throttled for %s", ip)
		page.Error = "Muitas tentativas. Aguarde um minuto e tente novamente."
		a.render(w, http.StatusTooManyRequests, "login", page)
		return
	}
	u, err := a.Users.Authenticate(r.Context(), page.Username, r.PostFormValue("password"))
	if errors.Is(err, users.ErrInvalidCredentials) {
		log.Printf("[INFO][AUTH] failed login for %q from %s", page.Username, ip)
		page.Error = "Usuário ou senha inválidos."
		a.render(w, http.StatusUnauthorized, "login", page)
		return
	}
	if err != nil {
		serverError(w, "authenticate", err)
		return
	}
	if _, err = a.Sessions.Create(r.Context(), w, u.Username); err != nil {
		serverError(w, "create session", err)
		return
	}
	log.Printf("[INFO][AUTH] %q logged in from %s", u.Username, ip)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	if err := a.Sessions.Destroy(r.Context(), w, s, blobFlow, blobLogo); err != nil {
		log.Printf("[WARN][AUTH] destroy session of %q: %v", s.Username, err)
	}
	http.Redirect(w, r, a.Sessions.Conf.LoginPathOr(), http.StatusSeeOther)
}
