package app

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-dashboard/internal/observability"
	"survey-dashboard/internal/source"
	"survey-dashboard/internal/survey"
)

const testCatalog = `
domains:
  - id: one
    title: One
    files: {responses: one_resp.csv, questions: one_q.csv, entities: one_ent.csv}
    question_join: {keys: [ID_PERGUNTA]}
    entity_join: {keys: [COD]}
    roles:
      survey_id: [ID_PESQUISA]
      question: [PERGUNTA]
      answer: [RESPOSTA]
      group: [NOME, COD]
    charts:
      - {id: overall, kind: overall}
  - id: two
    title: Two
    files: {responses: two_resp.csv, questions: two_q.csv, entities: two_ent.csv}
    question_join: {keys: [ID_PERGUNTA]}
    entity_join: {keys: [COD]}
    roles:
      survey_id: [ID_PESQUISA]
      question: [PERGUNTA]
      answer: [RESPOSTA]
    charts:
      - {id: overall, kind: overall}
`

func testSource(t *testing.T) (*source.Memory, *survey.Catalog) {
	t.Helper()
	c, err := survey.ParseCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)

	m := source.NewMemory()
	for _, id := range []string{"one", "two"} {
		m.Put(id+"_resp.csv", []byte("ID_PESQUISA,ID_PERGUNTA,COD,RESPOSTA\n1,1,A,Concordo\n1,2,B,Discordo\n1,1,Z,Concordo\n"))
		m.Put(id+"_q.csv", []byte("ID_PERGUNTA,PERGUNTA\n1,Primeira\n2,Segunda\n"))
		m.Put(id+"_ent.csv", []byte("COD,NOME\nA,Alfa\nB,Beta\n"))
	}
	return m, c
}

func TestLoad(t *testing.T) {
	src, c := testSource(t)
	logger := zerolog.Nop()

	snap, err := Load(context.Background(), src, c, &logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, snap.Domains())

	ds, ok := snap.Dataset("one")
	require.True(t, ok)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, 3, ds.Stats.QuestionMatches)
	assert.Equal(t, 2, ds.Stats.EntityMatches)
	assert.Equal(t, []string{"Alfa", "Beta"}, ds.Values("group"))

	col, ok := ds.RoleColumn("group")
	require.True(t, ok)
	assert.Equal(t, "NOME", col)

	assert.Equal(t, 3.0, testutil.ToFloat64(observability.RowsLoaded.WithLabelValues("one", "responses")))
	assert.InDelta(t, 2.0/3, testutil.ToFloat64(observability.JoinMatchedRatio.WithLabelValues("two", "entities")), 1e-9)
}

func TestLoadMissingTable(t *testing.T) {
	src, c := testSource(t)
	src.Put("two_q.csv", nil)
	logger := zerolog.Nop()

	_, err := Load(context.Background(), src, c, &logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "two_q.csv")
}

func TestLoadDomainNotFound(t *testing.T) {
	c, err := survey.ParseCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)
	logger := zerolog.Nop()

	d, err := c.Lookup("one")
	require.NoError(t, err)
	_, err = LoadDomain(context.Background(), source.NewMemory(), d, &logger)
	assert.ErrorIs(t, err, source.ErrNotFound)
}
