package view

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/shared"
	"github.com/obra-dashboard/obra/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        *shared.CurrentUser
	Data        any
}

// NewEngine parses every template embedded under web/templates.
func NewEngine() (*Engine, error) {
	tpl := template.New("root").Funcs(funcMap())
	err := fs.WalkDir(web.Templates, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		_, err = tpl.ParseFS(web.Templates, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Has reports whether a template with the given name was parsed.
func (e *Engine) Has(name string) bool {
	return e != nil && e.templates.Lookup(name) != nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

var labels = map[string]string{
	"pending":        "Pendente",
	"in_progress":    "Em andamento",
	"completed":      "Concluída",
	"delivered":      "Entregue",
	"cancelled":      "Cancelada",
	"new":            "Novo",
	"processed":      "Processado",
	"ignored":        "Ignorado",
	"pix":            "PIX",
	"dinheiro":       "Dinheiro",
	"cartao_credito": "Cartão de crédito",
	"cartao_debito":  "Cartão de débito",
	"boleto":         "Boleto",
	"transferencia":  "Transferência",
	"admin":          "Administrador",
	"editor":         "Editor",
	"viewer":         "Leitura",
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate":     func(v any) string { return formatTime(v, "02/01/2006") },
		"formatDateTime": func(v any) string { return formatTime(v, "02/01/2006 15:04") },
		"inputDate":      func(v any) string { return formatTime(v, "2006-01-02") },
		"inputDateTime":  func(v any) string { return formatTime(v, "2006-01-02T15:04") },
		"formatMoney":    shared.FormatBRL,
		"formatDecimal":  func(v decimal.Decimal) string { return v.StringFixed(2) },
		"percent":        func(v int) string { return strconv.Itoa(v) + "%" },
		"label": func(v string) string {
			if l, ok := labels[v]; ok {
				return l
			}
			return v
		},
		"selected":    selected,
		"add":         func(a, b int) int { return a + b },
		"formatBytes": formatBytes,
	}
}

func formatTime(v any, layout string) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(layout)
	default:
		return ""
	}
}

// selected compares optional identifiers in select inputs.
func selected(current any, id int64) bool {
	switch v := current.(type) {
	case int64:
		return v == id
	case *int64:
		return v != nil && *v == id
	case string:
		return v == strconv.FormatInt(id, 10)
	default:
		return false
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + " MB"
	case n >= 1<<10:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}
