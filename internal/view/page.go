package view

import (
	"log/slog"
	"net/http"

	"github.com/obra-dashboard/obra/internal/shared"
)

// Page bundles what feature handlers need to render templates and flash
// messages from the request session.
type Page struct {
	Logger    *slog.Logger
	Templates *Engine
	CSRF      *shared.CSRFManager
}

// Render writes the template with the given status.
func (p Page) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := p.CSRF.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if user, ok := shared.UserFromContext(r.Context()); ok {
		viewData.User = &user
	}
	w.WriteHeader(status)
	if err := p.Templates.Render(w, name, viewData); err != nil && p.Logger != nil {
		p.Logger.Error("render template", slog.Any("error", err), slog.String("template", name))
	}
}

// RedirectWithFlash queues a flash message and redirects with 303.
func (p Page) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// NotFound renders the generic not-found page.
func (p Page) NotFound(w http.ResponseWriter, r *http.Request) {
	p.Render(w, r, "pages/errors/not_found.html", "Não encontrado", nil, http.StatusNotFound)
}

// ServerError logs err and renders the generic error page.
func (p Page) ServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if p.Logger != nil {
		p.Logger.Error(msg, slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	p.Render(w, r, "pages/errors/server_error.html", "Erro", nil, http.StatusInternalServerError)
}
