package view

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err, "Templates should parse without error")
	require.NotNil(t, engine)

	for _, name := range []string{
		"pages/login.html",
		"pages/dashboard.html",
		"pages/suppliers/list.html",
		"pages/stages/show.html",
		"pages/finance/overview.html",
		"pages/errors/not_found.html",
	} {
		assert.True(t, engine.Has(name), name)
	}
}

func TestRenderLogin(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{
		Title:     "Entrar",
		CSRFToken: "tok",
		Flash:     &shared.FlashMessage{Kind: "error", Message: "Sessão expirada"},
		Data:      map[string]any{"Email": "a@b.c", "Errors": map[string]string{}},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, `name="csrf_token" value="tok"`)
	assert.Contains(t, body, "Sessão expirada")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestTemplateFuncs(t *testing.T) {
	funcs := funcMap()
	date := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "05/03/2024", funcs["formatDate"].(func(any) string)(date))
	assert.Equal(t, "05/03/2024 14:30", funcs["formatDateTime"].(func(any) string)(&date))
	assert.Equal(t, "", funcs["formatDate"].(func(any) string)((*time.Time)(nil)))
	assert.Equal(t, "2024-03-05", funcs["inputDate"].(func(any) string)(date))
	assert.Equal(t, "33%", funcs["percent"].(func(int) string)(33))
	assert.Equal(t, "Em andamento", funcs["label"].(func(string) string)("in_progress"))
	assert.Equal(t, "outro", funcs["label"].(func(string) string)("outro"))
	assert.Equal(t, "12.50", funcs["formatDecimal"].(func(decimal.Decimal) string)(decimal.RequireFromString("12.5")))

	id := int64(4)
	assert.True(t, selected(&id, 4))
	assert.False(t, selected((*int64)(nil), 4))
	assert.True(t, selected("4", 4))
	assert.True(t, selected(int64(4), 4))
}
