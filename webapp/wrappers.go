package webapp

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/zeptools/gw-contracts/requests"
	"github.com/zeptools/gw-contracts/routing"
	"github.com/zeptools/gw-contracts/users"
	"github.com/zeptools/gw-contracts/web/session"
)

type ctxKey int

const userKey ctxKey = iota

func withUser(ctx context.Context, u *users.Record) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func userFromContext(ctx context.Context) (*users.Record, bool) {
	u, ok := ctx.Value(userKey).(*users.Record)
	return u, ok
}

// requireLogin loads the session and its user. Pages redirect to /login, other
// requests get 401.
func (a *App) requireLogin() routing.HandlerWrapper {
	return routing.WrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			s, err := a.Sessions.Load(ctx, r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					log.Printf("[ERROR][WEBAPP] load session: %v", err)
				}
				a.unauthorized(w, r)
				return
			}
			u, err := a.Users.Get(ctx, s.Username)
			if err != nil {
				// user removed while logged in
				if errors.Is(err, users.ErrNotFound) {
					_ = a.Sessions.Destroy(ctx, w, s, blobFlow, blobLogo)
				} else {
					log.Printf("[ERROR][WEBAPP] load user %q: %v", s.Username, err)
				}
				a.unauthorized(w, r)
				return
			}
			ctx = session.WithSession(ctx, s)
			ctx = withUser(ctx, u)
			inner.ServeHTTP(w, r.WithContext(ctx))
		})
	})
}

func (a *App) unauthorized(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		http.Redirect(w, r, a.Sessions.Conf.LoginPathOr(), http.StatusSeeOther)
		return
	}
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

// requireAdmin must run inside requireLogin.
func requireAdmin() routing.HandlerWrapper {
	return routing.WrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := userFromContext(r.Context())
			if !ok || !u.IsAdmin() {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			inner.ServeHTTP(w, r)
		})
	})
}

// sameOrigin rejects cross-site form posts.
func sameOrigin() routing.HandlerWrapper {
	return routing.WrapperFunc(func(inner http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requests.SameOrigin(r) {
				log.Printf("[WARN][WEBAPP] cross-origin %s %s from %s", r.Method, r.URL.Path, r.Header.Get("Origin"))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			inner.ServeHTTP(w, r)
		})
	})
}
