package meetings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/reunioes"

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
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermObraEdit))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Update)
		r.Post("/{id}/delete", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.Schedule(r.Context())
	if err != nil {
		h.page.ServerError(w, r, "list meetings failed", err)
		return
	}
	h.page.Render(w, r, "pages/meetings/list.html", "Reuniões", map[string]any{
		"Schedule": schedule,
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	h.page.Render(w, r, "pages/meetings/show.html", m.Title, map[string]any{
		"Meeting": m,
		"IsPast":  m.Past(time.Now()),
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	h.renderForm(w, r, Meeting{ScheduledAt: start}, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	m, errs := meetingFromForm(r)
	if len(errs) > 0 {
		h.renderForm(w, r, m, errs, http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(r.Context(), m, shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.formError(w, r, m, err)
		return
	}
	h.page.RedirectWithFlash(w, r, meetingPath(created.ID), "success", "Reunião agendada")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, m, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	m, errs := meetingFromForm(r)
	m.ID = id
	if len(errs) > 0 {
		h.renderForm(w, r, m, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, m); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.formError(w, r, m, err)
		return
	}
	h.page.RedirectWithFlash(w, r, meetingPath(id), "success", "Reunião atualizada")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("delete meeting failed", slog.Any("error", err), slog.Int64("id", id))
		}
		h.page.RedirectWithFlash(w, r, basePath, "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Reunião removida")
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Meeting, bool) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return Meeting{}, false
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return Meeting{}, false
		}
		h.page.ServerError(w, r, "get meeting failed", err)
		return Meeting{}, false
	}
	return m, true
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, m Meeting, err error) {
	if !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("save meeting failed", slog.Any("error", err))
	}
	h.renderForm(w, r, m, shared.FormErrors(err), http.StatusBadRequest)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, m Meeting, errs map[string]string, status int) {
	title := "Nova reunião"
	if m.ID > 0 {
		title = "Editar reunião"
	}
	h.page.Render(w, r, "pages/meetings/form.html", title, map[string]any{
		"Errors":  errs,
		"Meeting": m,
	}, status)
}

func meetingFromForm(r *http.Request) (Meeting, map[string]string) {
	errs := map[string]string{}
	m := Meeting{
		Title:        r.PostFormValue("title"),
		Location:     r.PostFormValue("location"),
		Participants: r.PostFormValue("participants"),
		Agenda:       r.PostFormValue("agenda"),
		Minutes:      r.PostFormValue("minutes"),
	}
	at, err := shared.ParseDateTime(r.PostFormValue("scheduled_at"))
	if err != nil {
		errs["scheduled_at"] = fieldMessages["ScheduledAt"]
	}
	m.ScheduledAt = at
	return m, errs
}

func meetingPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10)
}
