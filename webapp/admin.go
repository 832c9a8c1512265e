package webapp

import (
	"errors"
	"log"
	"net/http"

	"github.com/zeptools/gw-contracts/users"
)

type adminUsersPage struct {
	pageBase
	Users []*users.Record
	Roles []users.Role
}

func (a *App) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	list, err := a.Users.List(r.Context())
	if err != nil {
		serverError(w, "list users", err)
		return
	}
	a.render(w, http.StatusOK, "admin_users", adminUsersPage{
		pageBase: a.base(r, "Usuários"),
		Users:    list,
		Roles:    []users.Role{users.RoleUser, users.RoleAdmin},
	})
}

func (a *App) handleAdminAddUser(w http.ResponseWriter, r *http.Request) {
	nu := users.NewUser{
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		Confirm:   r.PostFormValue("confirm"),
		Role:      users.Role(r.PostFormValue("role")),
		Unidade:   r.PostFormValue("unidade"),
		Endereco:  r.PostFormValue("endereco"),
		Cirurgiao: r.PostFormValue("cirurgiao"),
	}
	err := a.Users.Add(r.Context(), nu)
	var ie *users.InputError
	if errors.As(err, &ie) {
		a.redirect(w, r, "/admin/users", errMsg(ie.Message))
		return
	}
	if err != nil {
		serverError(w, "add user", err)
		return
	}
	a.redirect(w, r, "/admin/users", okMsg("Usuário "+nu.Username+" adicionado."))
}

func (a *App) handleAdminRemoveUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := userFromContext(r.Context())
	name := r.PostFormValue("username")
	err := a.Users.Remove(r.Context(), name, actor.Username)
	var ie *users.InputError
	switch {
	case errors.As(err, &ie):
		a.redirect(w, r, "/admin/users", errMsg(ie.Message))
	case errors.Is(err, users.ErrNotFound):
		a.redirect(w, r, "/admin/users", warnMsg("Usuário "+name+" não existe."))
	case err != nil:
		log.Printf("[ERROR][ADMIN] remove %q: %v", name, err)
		serverError(w, "remove user", err)
	default:
		a.redirect(w, r, "/admin/users", okMsg("Usuário "+name+" removido."))
	}
}
