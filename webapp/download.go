package webapp

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/zeptools/gw-contracts/artifacts"
	"github.com/zeptools/gw-contracts/contracts"
	"github.com/zeptools/gw-contracts/flow"
	"github.com/zeptools/gw-contracts/pdfs"
	"github.com/zeptools/gw-contracts/responses"
	"github.com/zeptools/gw-contracts/web/session"
)

// handleDownload sends the artifact named by a ticket issued to the logged-in user.
func (a *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, _ := session.FromContext(ctx)
	claims, err := a.Tickets.Parse(r.PathValue("ticket"))
	if err != nil {
		log.Printf("[INFO][DOWNLOAD] %q: %v", s.Username, err)
		http.Error(w, "link de download inválido ou expirado", http.StatusNotFound)
		return
	}
	if claims.Subject != s.Username {
		log.Printf("[WARN][DOWNLOAD] %q used a ticket of %q", s.Username, claims.Subject)
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	art, err := a.Artifacts.GetOwned(ctx, claims.ID, s.Username)
	if errors.Is(err, artifacts.ErrNotFound) {
		http.Error(w, "contrato expirado, gere novamente", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, "download", err)
		return
	}
	responses.WritePDFBytesWithFilename(w, claims.FileName, art.Data)
}

// handleFinish merges the batch into one PDF and redirects to its download.
// The batch is cleared and the individual artifacts deleted.
func (a *App) handleFinish(w http.ResponseWriter, r *http.Request) {
	target := "/"
	msg, ok := a.runStep(w, r, "finish", func(ctx context.Context, s *session.Session, st flow.State) (flow.State, *responses.Message, error) {
		next, batch, err := flow.Finish(st)
		if err != nil {
			return st, nil, err
		}
		docs := make([][]byte, 0, len(batch))
		pages := 0
		for _, item := range batch {
			art, err := a.Artifacts.GetOwned(ctx, item.ArtifactID, s.Username)
			if errors.Is(err, artifacts.ErrNotFound) {
				a.dropBatch(ctx, st)
				return next, errMsg("Os contratos gerados expiraram. Gere novamente."), nil
			}
			if err != nil {
				return st, nil, err
			}
			docs = append(docs, art.Data)
			pages += art.Pages
		}
		merged, err := pdfs.Merge(docs...)
		if err != nil {
			return st, nil, err
		}
		id, err := a.Artifacts.Put(ctx, s.Username, contracts.CombinedFileName, pages, merged)
		if err != nil {
			return st, nil, err
		}
		ticket, err := a.Tickets.Issue(s.Username, id, contracts.CombinedFileName)
		if err != nil {
			return st, nil, err
		}
		a.dropBatch(ctx, st)
		log.Printf("[INFO][FLOW] %q finished a batch of %d contracts, %d pages", s.Username, len(batch), pages)
		target = "/download/" + ticket
		return next, nil, nil
	})
	if ok {
		a.redirect(w, r, target, msg)
	}
}
