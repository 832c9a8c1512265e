package routing

import "net/http"

type BaseRouter struct {
	*http.ServeMux // Embedded
}

// Ensure BaseRouter implements Router
var _ Router = (*BaseRouter)(nil)

func NewBaseRouter() *BaseRouter {
	return &BaseRouter{ServeMux: http.NewServeMux()}
}

// Handle registers a route pattern
func (r *BaseRouter) Handle(pattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	r.ServeMux.Handle(pattern, wrap(handler, handlerWrappers))
}

func (r *BaseRouter) HandleFunc(pattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper) {
	r.Handle(pattern, http.HandlerFunc(handleFunc), handlerWrappers...)
}

// Group lets you register routes under a common Prefix + middleware.
func (r *BaseRouter) Group(prefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	g := &RouteGroup{
		Router:          r,
		Prefix:          prefix,
		HandlerWrappers: handlerWrappers,
	}
	batch(g)
	return g
}

// Wrap applies wrappers around the whole router, wrappers[0] outermost.
func (r *BaseRouter) Wrap(wrappers ...HandlerWrapper) http.Handler {
	return wrap(r, wrappers)
}
