package routing

import (
	"net/http"
	"slices"
	"strings"
)

type RouteGroup struct {
	Router          // [Embedded Interface]
	Prefix          string
	HandlerWrappers []HandlerWrapper // Group Handler Wrappers
}

// Ensure RouteGroup implements Router
var _ Router = (*RouteGroup)(nil)

// Handle registers "<method> <subpath>" or "<subpath>" under the group prefix.
// Group wrappers run first (outermost), then the route's own wrappers.
func (g *RouteGroup) Handle(subpattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	fullPattern := g.Prefix + subpattern
	if method, subpath, ok := strings.Cut(subpattern, " "); ok {
		fullPattern = method + " " + g.Prefix + subpath
	}
	if strings.Contains(fullPattern, "//") {
		panic("routing: cannot register pattern " + fullPattern)
	}
	g.Router.Handle(fullPattern, wrap(handler, slices.Concat(g.HandlerWrappers, handlerWrappers)))
}

func (g *RouteGroup) HandleFunc(subpattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper) {
	g.Handle(subpattern, http.HandlerFunc(handleFunc), handlerWrappers...)
}

// Group on *RouteGroup makes a Subgroup
//
//	router.Group("/admin/", func(admin *RouteGroup) {
//	  admin.Handle("GET users", usersPage)           // "GET /admin/users"
//	  admin.Group("users/", func(u *RouteGroup) {
//	    u.Handle("POST remove", removeUser)          // "POST /admin/users/remove"
//	  })
//	}, requireAdmin)
func (g *RouteGroup) Group(subPrefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	subg := &RouteGroup{
		Router:          g.Router,
		Prefix:          g.Prefix + subPrefix,
		HandlerWrappers: slices.Concat(g.HandlerWrappers, handlerWrappers),
	}
	batch(subg)
	return subg
}

// wrap nests handler so that wrappers[0] is the outermost.
func wrap(handler http.Handler, wrappers []HandlerWrapper) http.Handler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		handler = wrappers[i].Wrap(handler)
	}
	return handler
}
