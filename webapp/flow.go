package webapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/zeptools/gw-contracts/contracts"
	"github.com/zeptools/gw-contracts/extract"
	"github.com/zeptools/gw-contracts/flow"
	"github.com/zeptools/gw-contracts/locks/keyonlylocks"
	"github.com/zeptools/gw-contracts/pdfs"
	"github.com/zeptools/gw-contracts/responses"
	"github.com/zeptools/gw-contracts/users"
	"github.com/zeptools/gw-contracts/web/session"
)

type identityField struct {
	Key     string
	Label   string
	Value   string
	Missing bool
}

type downloadLink struct {
	Title string
	Pages int
	URL   string
}

type flowPage struct {
	pageBase
	Step        string
	State       flow.State
	Identity    []identityField
	Templates   []*contracts.Template
	Current     *contracts.Template
	Values      map[string]string
	Downloads   []downloadLink
	HasLogo     bool
	MaxUploadMB int64
}

func (a *App) handleFlowPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, _ := session.FromContext(ctx)
	st, err := a.loadState(ctx, s)
	if err != nil {
		serverError(w, "flow page", err)
		return
	}
	page := flowPage{
		pageBase:    a.base(r, "Contratos"),
		Step:        st.Step.String(),
		State:       st,
		Templates:   a.Catalog.List(),
		MaxUploadMB: a.MaxUpload >> 20,
	}
	for _, f := range extract.Fields {
		page.Identity = append(page.Identity, identityField{
			Key:     f,
			Label:   identityLabels[f],
			Value:   st.Identity.Get(f),
			Missing: slices.Contains(st.Misses, f),
		})
	}
	if st.TemplateKey != "" {
		if t, err := a.Catalog.Get(st.TemplateKey); err == nil {
			page.Current = t
			page.Values, _ = t.Values(st.Values)
		}
	}
	for _, item := range st.Batch {
		ticket, err := a.Tickets.Issue(s.Username, item.ArtifactID, contracts.FileName(st.Identity.Name))
		if err != nil {
			serverError(w, "issue ticket", err)
			return
		}
		page.Downloads = append(page.Downloads, downloadLink{Title: item.Title, Pages: item.Pages, URL: "/download/" + ticket})
	}
	_, page.HasLogo, _ = a.Sessions.GetBlob(ctx, s, blobLogo)
	a.render(w, http.StatusOK, "flow", page)
}

// stepFunc computes the next flow state. A non-nil message is flashed; a returned
// error aborts the request without saving.
type stepFunc func(ctx context.Context, s *session.Session, st flow.State) (flow.State, *responses.Message, error)

// step runs fn under the session's flow lock, stores the state it returns and
// redirects to the flow page.
func (a *App) step(w http.ResponseWriter, r *http.Request, op string, fn stepFunc) {
	if msg, ok := a.runStep(w, r, op, fn); ok {
		a.redirect(w, r, "/", msg)
	}
}

// runStep is step without the final redirect. ok=false means a response was written.
// Out-of-order steps redirect back to the current step.
func (a *App) runStep(w http.ResponseWriter, r *http.Request, op string, fn stepFunc) (*responses.Message, bool) {
	ctx := r.Context()
	s, _ := session.FromContext(ctx)
	release, ok := keyonlylocks.TryLock(a.RenderLocks, "flow:"+s.ID)
	if !ok {
		a.redirect(w, r, "/", warnMsg("Outra operação está em andamento. Aguarde e tente novamente."))
		return nil, false
	}
	defer release()

	st, err := a.loadState(ctx, s)
	if err != nil {
		serverError(w, op, err)
		return nil, false
	}
	next, msg, err := fn(ctx, s, st)
	var se *flow.StepError
	if errors.As(err, &se) {
		log.Printf("[WARN][FLOW] %q: %v", s.Username, err)
		a.redirect(w, r, "/", warnMsg("Esta etapa não está disponível agora."))
		return nil, false
	}
	if err != nil {
		if !isCanceled(err) {
			serverError(w, op, err)
		}
		return nil, false
	}
	if err = a.saveState(ctx, s, next); err != nil {
		serverError(w, op, err)
		return nil, false
	}
	return msg, true
}

// readUpload reads one multipart file of at most MaxUpload bytes.
// A user-facing message is returned for anything the user must fix.
func (a *App) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, *responses.Message) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUpload+1<<20)
	tooLarge := errMsg(fmt.Sprintf("Arquivo maior que %d MB.", a.MaxUpload>>20))
	if err := r.ParseMultipartForm(a.MaxUpload); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, tooLarge
		}
		return nil, errMsg("Envio inválido.")
	}
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, errMsg("Selecione um arquivo.")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, a.MaxUpload+1))
	if err != nil {
		return nil, errMsg("Falha ao ler o arquivo.")
	}
	if int64(len(data)) > a.MaxUpload {
		return nil, tooLarge
	}
	return data, nil
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, msg := a.readUpload(w, r, "document")
	if msg != nil {
		a.redirect(w, r, "/", msg)
		return
	}
	a.step(w, r, "upload", func(_ context.Context, s *session.Session, st flow.State) (flow.State, *responses.Message, error) {
		id, misses, err := a.Extractor.FromPDF(data)
		var ie *extract.InputError
		if errors.As(err, &ie) {
			log.Printf("[INFO][FLOW] %q upload rejected: %v", s.Username, err)
			return st, errMsg("O arquivo enviado não é um PDF válido."), nil
		}
		if err != nil {
			return st, nil, err
		}
		next, err := flow.Upload(st, id, misses)
		if err != nil {
			return st, nil, err
		}
		if len(misses) > 0 {
			labels := make([]string, len(misses))
			for i, m := range misses {
				labels[i] = identityLabels[m.Field]
			}
			return next, warnMsg("Não encontrado no documento: " + strings.Join(labels, ", ") + ". Corrija antes de confirmar."), nil
		}
		return next, okMsg("Dados do paciente lidos. Confira e confirme."), nil
	})
}

func (a *App) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := extract.Identity{
		Name:    r.PostFormValue(extract.FieldName),
		CPF:     r.PostFormValue(extract.FieldCPF),
		CEP:     r.PostFormValue(extract.FieldCEP),
		Address: r.PostFormValue(extract.FieldAddress),
	}
	a.step(w, r, "confirm", func(_ context.Context, _ *session.Session, st flow.State) (flow.State, *responses.Message, error) {
		next, err := flow.Confirm(st, id)
		var ie *flow.InputError
		if errors.As(err, &ie) {
			labels := make([]string, len(ie.Fields))
			for i, f := range ie.Fields {
				labels[i] = identityLabels[f]
			}
			return st, errMsg("Preencha: " + strings.Join(labels, ", ") + "."), nil
		}
		return next, nil, err
	})
}

func (a *App) handleSelect(w http.ResponseWriter, r *http.Request) {
	key := r.PostFormValue("template")
	a.step(w, r, "select", func(_ context.Context, _ *session.Session, st flow.State) (flow.State, *responses.Message, error) {
		t, err := a.Catalog.Get(key)
		if errors.Is(err, contracts.ErrUnknownTemplate) {
			return st, errMsg("Selecione um contrato da lista."), nil
		}
		if err != nil {
			return st, nil, err
		}
		next, err := flow.Select(st, t.Key, t.Title)
		return next, nil, err
	})
}

func (a *App) handleFill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.redirect(w, r, "/", errMsg("Envio inválido."))
		return
	}
	a.step(w, r, "fill", func(ctx context.Context, s *session.Session, st flow.State) (flow.State, *responses.Message, error) {
		t, err := a.Catalog.Get(st.TemplateKey)
		if err != nil {
			// no template selected yet
			_, err = flow.Fill(st, nil)
			return st, nil, err
		}
		values := make(map[string]string, len(t.Fields))
		for _, f := range t.Fields {
			values[f.Key] = r.PostForm.Get(f.Key)
		}
		next, err := flow.Fill(st, values)
		if err != nil {
			return st, nil, err
		}
		return a.renderContract(ctx, s, next, t)
	})
}

// renderContract fills and renders the selected template and stores the PDF.
// Input and render failures go back to the fill step with the values kept.
func (a *App) renderContract(ctx context.Context, s *session.Session, st flow.State, t *contracts.Template) (flow.State, *responses.Message, error) {
	u, _ := userFromContext(ctx)
	clinic := a.clinicFor(u)
	content, err := t.Fill(st.Values, st.Identity, clinic)
	var ie *contracts.InputError
	if errors.As(err, &ie) {
		labels := make([]string, 0, len(ie.Missing))
		for _, f := range t.Fields {
			if slices.Contains(ie.Missing, f.Key) {
				labels = append(labels, f.Label)
			}
		}
		back, _ := flow.RenderFailed(st)
		return back, errMsg("Campos obrigatórios: " + strings.Join(labels, "; ") + "."), nil
	}
	if err != nil {
		return st, nil, err
	}

	logo, err := a.sessionLogo(ctx, s)
	if err != nil {
		return st, nil, err
	}
	res, err := a.Renderer.Render(content, t.Title, logo)
	var re *pdfs.RenderError
	if errors.As(err, &re) {
		log.Printf("[ERROR][FLOW] render %s for %q: %v", t.Key, s.Username, err)
		back, _ := flow.RenderFailed(st)
		return back, errMsg("Não foi possível gerar o PDF: " + re.Op + "."), nil
	}
	if err != nil {
		return st, nil, err
	}

	id, err := a.Artifacts.Put(ctx, s.Username, contracts.FileName(st.Identity.Name), res.Pages, res.Bytes)
	if err != nil {
		return st, nil, err
	}
	next, err := flow.Rendered(st, flow.BatchItem{ArtifactID: id, Template: t.Key, Title: t.Title, Pages: res.Pages})
	if err != nil {
		return st, nil, err
	}
	log.Printf("[INFO][FLOW] %q rendered %s: %d pages", s.Username, t.Key, res.Pages)
	return next, okMsg(fmt.Sprintf("%s gerado com %d página(s).", t.Title, res.Pages)), nil
}

func (a *App) clinicFor(u *users.Record) contracts.Clinic {
	c := a.Clinic
	if u != nil {
		c.Unit = u.Unidade
		c.Address = u.Endereco
		c.Surgeon = u.Cirurgiao
	}
	return c
}

// sessionLogo is the uploaded logo of the session, else the default logo (possibly nil).
func (a *App) sessionLogo(ctx context.Context, s *session.Session) (*pdfs.LogoSpec, error) {
	data, ok, err := a.Sessions.GetBlob(ctx, s, blobLogo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return a.DefaultLogo, nil
	}
	return &pdfs.LogoSpec{Data: data, Width: a.LogoWidth, Height: a.LogoHeight}, nil
}

func (a *App) handleLogo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, _ := session.FromContext(ctx)
	if r.URL.Query().Get("clear") == "1" {
		if err := a.Sessions.DeleteBlob(ctx, s, blobLogo); err != nil {
			serverError(w, "clear logo", err)
			return
		}
		a.redirect(w, r, "/", okMsg("A logo padrão será usada."))
		return
	}
	data, msg := a.readUpload(w, r, "logo")
	if msg != nil {
		a.redirect(w, r, "/", msg)
		return
	}
	format, width, height, err := pdfs.DecodeLogoConfig(data)
	if err != nil {
		a.redirect(w, r, "/", errMsg("Imagem não reconhecida. Use PNG, JPEG, GIF, BMP ou WebP."))
		return
	}
	if err = a.Sessions.SetBlob(ctx, s, blobLogo, data); err != nil {
		serverError(w, "store logo", err)
		return
	}
	log.Printf("[INFO][FLOW] %q uploaded a %s logo %dx%d", s.Username, format, width, height)
	a.redirect(w, r, "/", okMsg("Logo personalizada salva."))
}

func (a *App) handleReset(w http.ResponseWriter, r *http.Request) {
	a.step(w, r, "reset", func(ctx context.Context, _ *session.Session, st flow.State) (flow.State, *responses.Message, error) {
		a.dropBatch(ctx, st)
		return flow.Reset(), nil, nil
	})
}

func (a *App) handleBack(w http.ResponseWriter, r *http.Request) {
	var to flow.Step
	if err := to.UnmarshalText([]byte(r.PostFormValue("to"))); err != nil {
		a.redirect(w, r, "/", errMsg("Etapa desconhecida."))
		return
	}
	a.step(w, r, "back", func(_ context.Context, _ *session.Session, st flow.State) (flow.State, *responses.Message, error) {
		next, err := flow.Back(st, to)
		return next, nil, err
	})
}

// dropBatch deletes the stored artifacts of st. Failures only leave them to expire.
func (a *App) dropBatch(ctx context.Context, st flow.State) {
	ids := make([]string, len(st.Batch))
	for i, item := range st.Batch {
		ids[i] = item.ArtifactID
	}
	if err := a.Artifacts.Delete(ctx, ids...); err != nil {
		log.Printf("[WARN][FLOW] delete %d artifacts: %v", len(ids), err)
	}
}
