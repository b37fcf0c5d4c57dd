package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/documentos"

// multipart overhead allowed on top of the file itself.
const formSlack = 1 << 20

type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermObraView))
		r.Get("/", h.List)
		r.Get("/{id}/download", h.Download)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermObraEdit))
		r.Get("/new", h.Form)
		r.Post("/", h.Upload)
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := Filters{Category: strings.TrimSpace(q.Get("categoria")), Search: strings.TrimSpace(q.Get("search"))}
	filters.StageID, _ = shared.ParseOptionalID(q.Get("etapa_id"))

	docs, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.page.ServerError(w, r, "list documents failed", err)
		return
	}
	stages, err := h.service.Stages(r.Context())
	if err != nil {
		h.logger.Warn("load document filters", slog.Any("error", err))
	}
	h.page.Render(w, r, "pages/documents/list.html", "Documentos", map[string]any{
		"Documents":  docs,
		"Filters":    filters,
		"Stages":     stages,
		"Categories": Categories(),
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	doc := Document{Category: r.URL.Query().Get("categoria")}
	doc.StageID, _ = shared.ParseOptionalID(r.URL.Query().Get("etapa_id"))
	h.renderForm(w, r, doc, map[string]string{}, http.StatusOK)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+formSlack)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderForm(w, r, Document{}, map[string]string{"file": ErrFileTooLarge.Message}, http.StatusRequestEntityTooLarge)
			return
		}
		h.renderForm(w, r, Document{}, map[string]string{"file": ErrFileRequired.Message}, http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	doc := Document{Title: r.PostFormValue("title"), Category: r.PostFormValue("category")}
	errs := map[string]string{}
	var err error
	if doc.StageID, err = shared.ParseOptionalID(r.PostFormValue("stage_id")); err != nil {
		errs["stage_id"] = fieldMessages["StageID"]
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		errs["file"] = ErrFileRequired.Message
	}
	if len(errs) > 0 {
		if file != nil {
			_ = file.Close()
		}
		h.renderForm(w, r, doc, errs, http.StatusBadRequest)
		return
	}
	defer file.Close()

	upload := Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	if _, err := h.service.Upload(r.Context(), doc, upload, shared.UserIDFromContext(r.Context())); err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("upload document failed", slog.Any("error", err))
		}
		h.renderForm(w, r, doc, shared.FormErrors(err), http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Documento enviado")
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	link, err := h.service.DownloadURL(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.page.ServerError(w, r, "presign document failed", err)
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.UserIDFromContext(r.Context())); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("delete document failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Documento removido")
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, doc Document, errs map[string]string, status int) {
	stages, err := h.service.Stages(r.Context())
	if err != nil {
		h.logger.Error("load document form options", slog.Any("error", err))
	}
	h.page.Render(w, r, "pages/documents/form.html", "Enviar documento", map[string]any{
		"Errors":     errs,
		"Document":   doc,
		"Stages":     stages,
		"Categories": Categories(),
		"MaxSizeMB":  MaxUploadSize >> 20,
	}, status)
}
