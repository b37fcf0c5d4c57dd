package stages

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const basePath = "/etapas"

type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, page: view.Page{Logger: logger, Templates: templates, CSRF: csrf}, rbac: rbac}
}

// MountRoutes registers the stage, sub-stage and task routes on the root router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermObraView))
		r.Get(basePath, h.List)
		r.Get(basePath+"/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermObraEdit))
		r.Get(basePath+"/new", h.StageForm)
		r.Post(basePath, h.CreateStage)
		r.Get(basePath+"/{id}/edit", h.EditStageForm)
		r.Post(basePath+"/{id}/edit", h.UpdateStage)
		r.Post(basePath+"/{id}/delete", h.DeleteStage)

		r.Get(basePath+"/{id}/sub-etapas/new", h.SubStageForm)
		r.Post(basePath+"/{id}/sub-etapas", h.CreateSubStage)
		r.Get("/sub-etapas/{id}/edit", h.EditSubStageForm)
		r.Post("/sub-etapas/{id}/edit", h.UpdateSubStage)
		r.Post("/sub-etapas/{id}/progresso", h.UpdateProgress)
		r.Post("/sub-etapas/{id}/delete", h.DeleteSubStage)

		r.Get("/sub-etapas/{id}/tarefas/new", h.TaskForm)
		r.Post("/sub-etapas/{id}/tarefas", h.CreateTask)
		r.Get("/tarefas/{id}/edit", h.EditTaskForm)
		r.Post("/tarefas/{id}/edit", h.UpdateTask)
		r.Post("/tarefas/{id}/status", h.ToggleTask)
		r.Post("/tarefas/{id}/delete", h.DeleteTask)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stages, err := h.service.ListStages(r.Context())
	if err != nil {
		h.page.ServerError(w, r, "list stages failed", err)
		return
	}
	h.page.Render(w, r, "pages/stages/list.html", "Etapas da obra", map[string]any{
		"Stages":   stages,
		"Overview": summarize(stages),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	stage, err := h.service.GetStage(r.Context(), id)
	if err != nil {
		h.notFoundOr500(w, r, "get stage failed", err)
		return
	}
	h.page.Render(w, r, "pages/stages/show.html", stage.Name, map[string]any{
		"Stage":    stage,
		"Statuses": Statuses(),
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) StageForm(w http.ResponseWriter, r *http.Request) {
	h.renderStageForm(w, r, Stage{Status: StatusPending}, map[string]string{}, http.StatusOK)
}

func (h *Handler) CreateStage(w http.ResponseWriter, r *http.Request) {
	stage, errs := stageFromForm(r)
	if len(errs) > 0 {
		h.renderStageForm(w, r, stage, errs, http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateStage(r.Context(), stage)
	if err != nil {
		h.logUnexpected("save stage failed", err)
		h.renderStageForm(w, r, stage, shared.FormErrors(err), http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(created.ID), "success", "Etapa cadastrada")
}

func (h *Handler) EditStageForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	stage, err := h.service.GetStage(r.Context(), id)
	if err != nil {
		h.notFoundOr500(w, r, "get stage failed", err)
		return
	}
	h.renderStageForm(w, r, stage, map[string]string{}, http.StatusOK)
}

func (h *Handler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	stage, errs := stageFromForm(r)
	stage.ID = id
	if len(errs) > 0 {
		h.renderStageForm(w, r, stage, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateStage(r.Context(), id, stage); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.logUnexpected("update stage failed", err)
		h.renderStageForm(w, r, stage, shared.FormErrors(err), http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(id), "success", "Etapa atualizada")
}

func (h *Handler) DeleteStage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteStage(r.Context(), id); err != nil {
		h.logUnexpected("delete stage failed", err)
		h.page.RedirectWithFlash(w, r, stagePath(id), "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, basePath, "success", "Etapa removida")
}

func (h *Handler) SubStageForm(w http.ResponseWriter, r *http.Request) {
	stageID, ok := h.urlID(w, r)
	if !ok {
		return
	}
	h.renderSubStageForm(w, r, SubStage{StageID: stageID, Status: StatusPending}, map[string]string{}, http.StatusOK)
}

func (h *Handler) CreateSubStage(w http.ResponseWriter, r *http.Request) {
	stageID, ok := h.urlID(w, r)
	if !ok {
		return
	}
	sub, errs := subStageFromForm(r)
	sub.StageID = stageID
	if len(errs) > 0 {
		h.renderSubStageForm(w, r, sub, errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateSubStage(r.Context(), sub); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.page.NotFound(w, r)
			return
		}
		h.logUnexpected("save sub-stage failed", err)
		h.renderSubStageForm(w, r, sub, shared.FormErrors(err), http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(stageID), "success", "Sub-etapa cadastrada")
}

func (h *Handler) EditSubStageForm(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.loadSubStage(w, r)
	if !ok {
		return
	}
	h.renderSubStageForm(w, r, sub, map[string]string{}, http.StatusOK)
}

func (h *Handler) UpdateSubStage(w http.ResponseWriter, r *http.Request) {
	current, ok := h.loadSubStage(w, r)
	if !ok {
		return
	}
	sub, errs := subStageFromForm(r)
	sub.ID = current.ID
	sub.StageID = current.StageID
	if len(errs) > 0 {
		h.renderSubStageForm(w, r, sub, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateSubStage(r.Context(), sub.ID, sub); err != nil {
		h.logUnexpected("update sub-stage failed", err)
		h.renderSubStageForm(w, r, sub, shared.FormErrors(err), http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "success", "Sub-etapa atualizada")
}

// UpdateProgress stores the manual percentage typed on the stage page.
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.loadSubStage(w, r)
	if !ok {
		return
	}
	progress, err := parseProgress(r.PostFormValue("progress"))
	if err == nil {
		err = h.service.SetProgress(r.Context(), sub.ID, progress)
	}
	if err != nil {
		h.logUnexpected("update progress failed", err)
		h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "success", "Progresso atualizado")
}

func (h *Handler) DeleteSubStage(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.loadSubStage(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSubStage(r.Context(), sub.ID); err != nil {
		h.logUnexpected("delete sub-stage failed", err)
		h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "success", "Sub-etapa removida")
}

func (h *Handler) TaskForm(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.loadSubStage(w, r)
	if !ok {
		return
	}
	h.renderTaskForm(w, r, sub, Task{SubStageID: sub.ID, Status: StatusPending}, map[string]string{}, http.StatusOK)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.loadSubStage(w, r)
	if !ok {
		return
	}
	task, errs := taskFromForm(r)
	task.SubStageID = sub.ID
	if len(errs) > 0 {
		h.renderTaskForm(w, r, sub, task, errs, http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateTask(r.Context(), task); err != nil {
		h.logUnexpected("save task failed", err)
		h.renderTaskForm(w, r, sub, task, shared.FormErrors(err), http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "success", "Tarefa cadastrada")
}

func (h *Handler) EditTaskForm(w http.ResponseWriter, r *http.Request) {
	task, sub, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	h.renderTaskForm(w, r, sub, task, map[string]string{}, http.StatusOK)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	current, sub, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	task, errs := taskFromForm(r)
	task.ID = current.ID
	task.SubStageID = current.SubStageID
	if len(errs) > 0 {
		h.renderTaskForm(w, r, sub, task, errs, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateTask(r.Context(), task.ID, task); err != nil {
		h.logUnexpected("update task failed", err)
		h.renderTaskForm(w, r, sub, task, shared.FormErrors(err), http.StatusBadRequest)
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "success", "Tarefa atualizada")
}

// ToggleTask advances the task status, or sets the one posted in "status".
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	current, sub, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	task, err := h.service.ToggleTask(r.Context(), current.ID, r.PostFormValue("status"))
	if err != nil {
		h.logUnexpected("toggle task failed", err)
		h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "success", "Tarefa \""+task.Title+"\" atualizada")
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, sub, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTask(r.Context(), task.ID); err != nil {
		h.logUnexpected("delete task failed", err)
		h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "error", shared.UserSafeMessage(err))
		return
	}
	h.page.RedirectWithFlash(w, r, stagePath(sub.StageID), "success", "Tarefa removida")
}

func (h *Handler) urlID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.page.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *Handler) loadSubStage(w http.ResponseWriter, r *http.Request) (SubStage, bool) {
	id, ok := h.urlID(w, r)
	if !ok {
		return SubStage{}, false
	}
	sub, err := h.service.GetSubStage(r.Context(), id)
	if err != nil {
		h.notFoundOr500(w, r, "get sub-stage failed", err)
		return SubStage{}, false
	}
	return sub, true
}

func (h *Handler) loadTask(w http.ResponseWriter, r *http.Request) (Task, SubStage, bool) {
	id, ok := h.urlID(w, r)
	if !ok {
		return Task{}, SubStage{}, false
	}
	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		h.notFoundOr500(w, r, "get task failed", err)
		return Task{}, SubStage{}, false
	}
	sub, err := h.service.GetSubStage(r.Context(), task.SubStageID)
	if err != nil {
		h.notFoundOr500(w, r, "get sub-stage failed", err)
		return Task{}, SubStage{}, false
	}
	return task, sub, true
}

func (h *Handler) notFoundOr500(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		h.page.NotFound(w, r)
		return
	}
	h.page.ServerError(w, r, msg, err)
}

func (h *Handler) logUnexpected(msg string, err error) {
	if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrInUse) {
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
}

func (h *Handler) renderStageForm(w http.ResponseWriter, r *http.Request, stage Stage, errs map[string]string, status int) {
	title := "Nova etapa"
	if stage.ID > 0 {
		title = "Editar etapa"
	}
	h.page.Render(w, r, "pages/stages/form.html", title, map[string]any{
		"Errors":   errs,
		"Stage":    stage,
		"Statuses": Statuses(),
	}, status)
}

func (h *Handler) renderSubStageForm(w http.ResponseWriter, r *http.Request, sub SubStage, errs map[string]string, status int) {
	title := "Nova sub-etapa"
	if sub.ID > 0 {
		title = "Editar sub-etapa"
	}
	h.page.Render(w, r, "pages/stages/substage_form.html", title, map[string]any{
		"Errors":   errs,
		"SubStage": sub,
		"Statuses": Statuses(),
	}, status)
}

func (h *Handler) renderTaskForm(w http.ResponseWriter, r *http.Request, sub SubStage, task Task, errs map[string]string, status int) {
	title := "Nova tarefa"
	if task.ID > 0 {
		title = "Editar tarefa"
	}
	h.page.Render(w, r, "pages/stages/task_form.html", title, map[string]any{
		"Errors":   errs,
		"SubStage": sub,
		"Task":     task,
		"Statuses": Statuses(),
	}, status)
}

func stageFromForm(r *http.Request) (Stage, map[string]string) {
	errs := map[string]string{}
	stage := Stage{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Status:      r.PostFormValue("status"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("position")); raw != "" {
		pos, err := strconv.Atoi(raw)
		if err != nil {
			errs["position"] = "Ordem inválida"
		}
		stage.Position = pos
	}
	var err error
	if stage.PlannedStart, err = shared.ParseOptionalDate(r.PostFormValue("planned_start")); err != nil {
		errs["planned_start"] = "Data inválida"
	}
	if stage.PlannedEnd, err = shared.ParseOptionalDate(r.PostFormValue("planned_end")); err != nil {
		errs["planned_end"] = "Data inválida"
	}
	return stage, errs
}

func subStageFromForm(r *http.Request) (SubStage, map[string]string) {
	errs := map[string]string{}
	sub := SubStage{
		Name:   r.PostFormValue("name"),
		Status: r.PostFormValue("status"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("position")); raw != "" {
		pos, err := strconv.Atoi(raw)
		if err != nil {
			errs["position"] = "Ordem inválida"
		}
		sub.Position = pos
	}
	progress, err := parseProgress(r.PostFormValue("progress"))
	if err != nil {
		errs["stored_progress"] = fieldMessages["StoredProgress"]
	}
	sub.StoredProgress = progress
	return sub, errs
}

func taskFromForm(r *http.Request) (Task, map[string]string) {
	errs := map[string]string{}
	task := Task{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Status:      r.PostFormValue("status"),
		Assignee:    r.PostFormValue("assignee"),
	}
	var err error
	if task.DueDate, err = shared.ParseOptionalDate(r.PostFormValue("due_date")); err != nil {
		errs["due_date"] = "Data inválida"
	}
	return task, errs
}

// parseProgress reads an optional 0..100 percentage; blank clears it.
func parseProgress(raw string) (*int, error) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > 100 {
		return nil, shared.FieldError{Field: "progress", Message: fieldMessages["StoredProgress"]}
	}
	return &v, nil
}

func stagePath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10)
}
