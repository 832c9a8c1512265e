package webapp

import (
	"net/http"

	"github.com/zeptools/gw-contracts/responses"
)

type faqItem struct {
	Question string
	Answer   string
}

var faq = []faqItem{
	{"Como faço o upload de um PDF?", "Na página principal, escolha o documento PDF do paciente e clique em Enviar. Confira os dados lidos antes de confirmar."},
	{"Posso adicionar uma logo personalizada?", "Sim. Envie uma imagem em Logo do contrato. Sem logo personalizada, a logo padrão é usada."},
	{"Como adicionar mais contratos?", "Depois de gerar um contrato, selecione outro modelo. Cada contrato gerado entra na lista de contratos adicionados."},
	{"Como faço para baixar todos os contratos adicionados?", "Clique em Finalizar e Baixar. Um único PDF com todos os contratos adicionados é gerado."},
	{"O que acontece com os contratos depois que eu finalizo o download?", "Os contratos são removidos do sistema após o download. Os que não forem baixados expiram automaticamente."},
	{"Posso editar um contrato após adicioná-lo?", "Não. Para alterar um contrato, gere-o novamente com os valores corretos."},
}

type faqPage struct {
	pageBase
	Items []faqItem
}

func (a *App) handleFAQ(w http.ResponseWriter, r *http.Request) {
	page := faqPage{pageBase: pageBase{Title: "Dúvidas Frequentes"}, Items: faq}
	if s, err := a.Sessions.Load(r.Context(), r); err == nil {
		page.User, _ = a.Users.Get(r.Context(), s.Username)
	}
	a.render(w, http.StatusOK, "faq", page)
}

type health struct {
	Status    string `json:"status"`
	Templates int    `json:"templates"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	responses.EncodeWriteJSON(w, http.StatusOK, health{Status: "ok", Templates: a.Catalog.Len()})
}
