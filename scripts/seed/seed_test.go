package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBundledSeed(t *testing.T) {
	seed, err := loadSeed("obra.yaml")
	require.NoError(t, err)

	assert.Equal(t, "admin@obra.local", seed.Admin.Email)
	assert.NotEmpty(t, seed.Categories)
	require.NotEmpty(t, seed.Stages)
	assert.Equal(t, "Preparação do terreno", seed.Stages[0].Name)
	assert.Equal(t, []string{"Remover entulho", "Nivelar terreno"}, seed.Stages[0].SubStages[0].Tasks)
}

func TestParseSeedRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"missing admin": `
categories: [{name: Material}]`,
		"short password": `
admin: {email: a@b.c, password: curta}`,
		"duplicate category": `
admin: {email: a@b.c, password: longa-o-bastante}
categories: [{name: Material}, {name: material}]`,
		"bad date": `
admin: {email: a@b.c, password: longa-o-bastante}
stages: [{name: Fundação, planned_start: 01/02/2026}]`,
		"end before start": `
admin: {email: a@b.c, password: longa-o-bastante}
stages: [{name: Fundação, planned_start: "2026-03-01", planned_end: "2026-02-01"}]`,
		"unnamed sub-stage": `
admin: {email: a@b.c, password: longa-o-bastante}
stages: [{name: Fundação, sub_stages: [{tasks: [x]}]}]`,
		"not yaml": `admin: [`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSeed([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseSeedAcceptsOptionalDates(t *testing.T) {
	seed, err := parseSeed([]byte(`
admin: {email: a@b.c, password: longa-o-bastante}
stages:
  - name: Fundação
    planned_start: "2026-02-01"
  - name: Estrutura
`))
	require.NoError(t, err)
	require.Len(t, seed.Stages, 2)

	start, err := optionalDate(seed.Stages[0].PlannedStart)
	require.NoError(t, err)
	require.NotNil(t, start)
	assert.Equal(t, 2026, start.Year())

	none, err := optionalDate(seed.Stages[1].PlannedStart)
	require.NoError(t, err)
	assert.Nil(t, none)
}
