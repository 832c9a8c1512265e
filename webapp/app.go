package webapp

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zeptools/gw-contracts/artifacts"
	"github.com/zeptools/gw-contracts/contracts"
	"github.com/zeptools/gw-contracts/extract"
	"github.com/zeptools/gw-contracts/pdfs"
	"github.com/zeptools/gw-contracts/responses"
	"github.com/zeptools/gw-contracts/routing"
	"github.com/zeptools/gw-contracts/sec"
	"github.com/zeptools/gw-contracts/throttle"
	"github.com/zeptools/gw-contracts/users"
	"github.com/zeptools/gw-contracts/web/session"
)

//go:embed templates
var Templates embed.FS

const TemplateRoot = "templates"

const loginBucketGroup = "login"

// Blob names kept per session.
const (
	blobFlow = "flow"
	blobLogo = "logo"
)

// App serves the contract pages. Every field except DefaultLogo must be set before Routes.
type App struct {
	Users       *users.Service
	Sessions    *session.Manager
	Templates   responses.Executor
	Catalog     *contracts.Catalog
	Extractor   *extract.Extractor
	Renderer    *pdfs.Renderer
	Artifacts   *artifacts.Store
	Tickets     *sec.TicketIssuer
	Throttle    *throttle.BucketStore[string]
	RenderLocks *sync.Map
	Clinic      contracts.Clinic // name and forum; the rest comes from the user
	DefaultLogo *pdfs.LogoSpec
	LogoWidth   float64
	LogoHeight  float64
	MaxUpload   int64 // bytes
	TrustProxy  bool
}

// LoginThrottle configures the per-IP login bucket group.
func (a *App) LoginThrottle(burst, perMinute int) {
	a.Throttle.SetBucketGroup(loginBucketGroup, &throttle.BucketConf{
		Burst:     burst,
		Increment: perMinute,
		Period:    time.Minute,
	})
}

// FuncMap is installed in the HTML template store.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"fieldLabel": func(f string) string {
			return identityLabels[f]
		},
	}
}

var identityLabels = map[string]string{
	extract.FieldName:    "Nome",
	extract.FieldCPF:     "CPF",
	extract.FieldCEP:     "CEP",
	extract.FieldAddress: "Endereço",
}

// Routes registers every page on a new router.
func (a *App) Routes() *routing.BaseRouter {
	r := routing.NewBaseRouter()
	auth := a.requireLogin()
	csrf := sameOrigin()

	r.HandleFunc("GET /healthz", a.handleHealth)
	r.HandleFunc("GET /faq", a.handleFAQ)
	r.HandleFunc("GET /login", a.handleLoginPage)
	r.HandleFunc("POST /login", a.handleLogin, csrf)
	r.HandleFunc("POST /logout", a.handleLogout, csrf, auth)
	r.HandleFunc("GET /{$}", a.handleFlowPage, auth)
	r.HandleFunc("GET /download/{ticket}", a.handleDownload, auth)

	r.Group("/flow", func(g *routing.RouteGroup) {
		g.HandleFunc("POST /upload", a.handleUpload)
		g.HandleFunc("POST /confirm", a.handleConfirm)
		g.HandleFunc("POST /select", a.handleSelect)
		g.HandleFunc("POST /fill", a.handleFill)
		g.HandleFunc("POST /logo", a.handleLogo)
		g.HandleFunc("POST /reset", a.handleReset)
		g.HandleFunc("POST /back", a.handleBack)
		g.HandleFunc("POST /finish", a.handleFinish)
	}, csrf, auth)

	r.Group("/admin", func(g *routing.RouteGroup) {
		g.HandleFunc("GET /users", a.handleAdminUsers)
		g.HandleFunc("POST /users/add", a.handleAdminAddUser)
		g.HandleFunc("POST /users/remove", a.handleAdminRemoveUser)
	}, csrf, auth, requireAdmin())
	return r
}

// Handler is the router behind panic recovery and access logging.
func (a *App) Handler() http.Handler {
	return a.Routes().Wrap(routing.AccessLogWrapper, routing.RecoverWrapper)
}

// pageBase is embedded in every page's data.
type pageBase struct {
	Title string
	User  *users.Record
	Flash *responses.Message
}

func (a *App) render(w http.ResponseWriter, status int, name string, data any) {
	responses.WriteHTML(w, status, a.Templates, name, data)
}

func (a *App) base(r *http.Request, title string) pageBase {
	b := pageBase{Title: title}
	b.User, _ = userFromContext(r.Context())
	if s, ok := session.FromContext(r.Context()); ok {
		b.Flash = a.popFlash(r.Context(), s)
	}
	return b
}

// Flash messages live in two session fields until the next page view.
const (
	fieldFlashType = "flash_type"
	fieldFlashMsg  = "flash_msg"
)

func (a *App) flash(ctx context.Context, s *session.Session, m responses.Message) {
	err := a.Sessions.Set(ctx, s, map[string]string{fieldFlashType: m.Type, fieldFlashMsg: m.Message})
	if err != nil {
		log.Printf("[WARN][WEBAPP] flash: %v", err)
	}
}

func (a *App) popFlash(ctx context.Context, s *session.Session) *responses.Message {
	msg, ok, err := a.Sessions.Get(ctx, s, fieldFlashMsg)
	if err != nil || !ok || msg == "" {
		return nil
	}
	typ, _, _ := a.Sessions.Get(ctx, s, fieldFlashType)
	_ = a.Sessions.Set(ctx, s, map[string]string{fieldFlashType: "", fieldFlashMsg: ""})
	return &responses.Message{Type: typ, Message: msg}
}

// redirect answers a form post with 303 to target after setting a flash message.
func (a *App) redirect(w http.ResponseWriter, r *http.Request, target string, m *responses.Message) {
	if m != nil {
		if s, ok := session.FromContext(r.Context()); ok {
			a.flash(r.Context(), s, *m)
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// serverError logs err and answers 500 without leaking details.
func serverError(w http.ResponseWriter, op string, err error) {
	log.Printf("[ERROR][WEBAPP] %s: %v", op, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func errMsg(msg string) *responses.Message {
	m := responses.ErrorMessage(msg)
	return &m
}

func okMsg(msg string) *responses.Message {
	m := responses.SuccessMessage(msg)
	return &m
}

func warnMsg(msg string) *responses.Message {
	m := responses.WarningMessage(msg)
	return &m
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
