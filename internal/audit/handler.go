package audit

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/obra-dashboard/obra/internal/rbac"
	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/internal/view"
)

const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
	defaultDateRange = 7 * 24 * time.Hour
	maxDateRange     = 90 * 24 * time.Hour
	dateLayout       = "2006-01-02"
)

// Handler serves the audit timeline to administrators.
type Handler struct {
	logger  *slog.Logger
	service *Service
	page    view.Page
	rbac    rbac.Middleware
	now     func() time.Time
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		page:    view.Page{Logger: logger, Templates: templates, CSRF: csrf},
		rbac:    rbac,
		now:     time.Now,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(exportRateLimit, exportRateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersManage))
		r.Get("/", h.timeline)
		r.With(limiter).Get("/export.csv", h.export)
	})
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.page.ServerError(w, r, "load audit timeline failed", err)
		return
	}
	h.page.Render(w, r, "pages/audit/timeline.html", "Auditoria", map[string]any{
		"Filters":   filters,
		"Rows":      result.Rows,
		"Paging":    result.Paging,
		"ExportURL": "/auditoria/export.csv?" + filterQuery(filters, 0),
		"PrevURL":   pageURL(filters, result.Paging.PrevPage),
		"NextURL":   pageURL(filters, result.Paging.NextPage),
	}, http.StatusOK)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.page.ServerError(w, r, "export audit timeline failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="auditoria.csv"`)
	if err := WriteCSV(w, rows); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

var (
	errBadDate  = errors.New("data inválida, use AAAA-MM-DD")
	errBadRange = errors.New("intervalo inválido, máximo de 90 dias")
	errBadPage  = errors.New("página inválida")
)

func (h *Handler) parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	to := h.now().UTC().Truncate(24 * time.Hour)
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return TimelineFilters{}, errBadDate
		}
		to = parsed
	}
	from := to.Add(-defaultDateRange)
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return TimelineFilters{}, errBadDate
		}
		from = parsed
	}
	if from.After(to) || to.Sub(from) > maxDateRange {
		return TimelineFilters{}, errBadRange
	}

	page := 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return TimelineFilters{}, errBadPage
		}
		page = parsed
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	return TimelineFilters{
		From:     from,
		To:       to,
		Actor:    strings.TrimSpace(q.Get("actor")),
		Entity:   strings.TrimSpace(q.Get("entity")),
		Action:   strings.TrimSpace(q.Get("action")),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// filterQuery rebuilds the query string for pagination and export links.
func filterQuery(f TimelineFilters, page int) string {
	v := url.Values{}
	v.Set("from", f.From.Format(dateLayout))
	v.Set("to", f.To.Format(dateLayout))
	if f.Actor != "" {
		v.Set("actor", f.Actor)
	}
	if f.Entity != "" {
		v.Set("entity", f.Entity)
	}
	if f.Action != "" {
		v.Set("action", f.Action)
	}
	if f.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(f.PageSize))
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	return v.Encode()
}

func pageURL(f TimelineFilters, page int) string {
	if page <= 0 {
		return ""
	}
	return "/auditoria?" + filterQuery(f, page)
}

func rateLimitKey(r *http.Request) (string, error) {
	if user, ok := shared.UserFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(user.ID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
