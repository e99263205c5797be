package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"survey-dashboard/internal/aggregate"
	"survey-dashboard/internal/chart"
	"survey-dashboard/internal/models"
	"survey-dashboard/internal/state"
	"survey-dashboard/internal/survey"
)

const testCatalog = `
domains:
  - id: cursos
    title: Cursos
    files: {responses: r.csv, questions: q.csv, entities: e.csv}
    question_join: {keys: [ID_PERGUNTA]}
    entity_join: {keys: [CURSO]}
    roles:
      survey_id: [ID_PESQUISA]
      question: [PERGUNTA]
      answer: [RESPOSTA]
      course: [CURSO]
    filters:
      - {param: course, role: course, label: Curso}
      - {param: question, role: question, label: Pergunta, scope: [questions]}
    charts:
      - {id: overall, kind: overall, title: Geral}
      - {id: questions, kind: likert, role: question, title: Perguntas}
      - {id: top, kind: ranking, role: course, limit: 15, title: Ranking}
      - {id: volume, kind: treemap, role: course, limit: 10, title: Volume}
`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	catalog, err := survey.ParseCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)

	df := &state.DataFrame{
		Headers: []string{"ID_PESQUISA", "PERGUNTA", "CURSO", "RESPOSTA"},
		Rows: [][]string{
			{"1", "O curso atendeu suas expectativas de aprendizado", "Excel", "Concordo"},
			{"1", "O curso atendeu suas expectativas de aprendizado", "Excel", "Concordo"},
			{"1", "O instrutor dominava o conteúdo", "Excel", "Discordo"},
			{"1", "O curso atendeu suas expectativas de aprendizado", "Gestão", "Desconheço"},
		},
	}
	ds := state.NewDataset("cursos", "Cursos", df, map[string]string{
		survey.RoleSurveyID: "ID_PESQUISA",
		survey.RoleQuestion: "PERGUNTA",
		survey.RoleAnswer:   "RESPOSTA",
		"course":            "CURSO",
	}, state.ReconcileStats{Responses: 4, QuestionMatches: 4, EntityMatches: 4})

	logger := zerolog.Nop()
	h := NewHandler(state.NewSnapshot(ds), catalog, aggregate.NewEngine(), &logger)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := get(t, newTestRouter(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListDomains(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/domains")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.DomainsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Domains, 1)
	assert.Equal(t, "cursos", resp.Domains[0].ID)
	assert.Equal(t, 4, resp.Domains[0].Rows)
	assert.Len(t, resp.Domains[0].Charts, 4)
	assert.Equal(t, []models.FilterInfo{{Param: "course", Label: "Curso"}, {Param: "question", Label: "Pergunta"}}, resp.Domains[0].Filters)
}

func TestGetOptions(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/cursos/options")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Filters, 2)
	assert.Equal(t, []survey.Option{{Label: "Excel", Value: "Excel"}, {Label: "Gestão", Value: "Gestão"}}, resp.Filters[0].Options)

	questions := resp.Filters[1].Options
	require.Len(t, questions, 2)
	assert.Equal(t, "P1: O curso atendeu suas expectativas de...", questions[0].Label)
	assert.Equal(t, "O curso atendeu suas expectativas de aprendizado", questions[0].Value)
}

func TestUnknownDomainAndChart(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/nope/options").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/cursos/charts/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/cursos/summary/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/?tab=nope").Code)
}

func TestGetChartsFiltered(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/cursos/charts?course=Excel")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChartsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, map[string][]string{"course": {"Excel"}}, resp.Filter)
	require.Len(t, resp.Charts, 4)

	pie := resp.Charts[0]
	assert.Equal(t, chart.TypePie, pie.ChartType)
	require.Len(t, pie.Series, 1)
	assert.Equal(t, "Discordo", pie.Series[0].Data[0].Label)
	assert.Equal(t, 33.3, pie.Series[0].Data[0].Value)
	assert.Equal(t, "Concordo", pie.Series[0].Data[1].Label)
	assert.Equal(t, 66.7, pie.Series[0].Data[1].Value)
}

func TestGetChartsQuestionFilterScope(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/cursos/charts?question=O+instrutor+dominava+o+conte%C3%BAdo")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChartsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Rows)
	require.Len(t, resp.Charts, 4)

	pie := resp.Charts[0]
	require.False(t, pie.Empty)
	require.Len(t, pie.Series[0].Data, 3)

	questions := resp.Charts[1]
	require.False(t, questions.Empty)
	assert.Equal(t, []string{"O instrutor dominava o conteúdo"}, questions.Categories)

	rec = get(t, newTestRouter(t), "/api/cursos/summary/volume?question=O+instrutor+dominava+o+conte%C3%BAdo")
	require.Equal(t, http.StatusOK, rec.Code)
	var s aggregate.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	require.NotNil(t, s.Volume)
	assert.Equal(t, 4, s.Volume.Total)
}

func TestGetChartsEmptyFilter(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/cursos/charts?course=Nada")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChartsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Rows)
	for _, c := range resp.Charts {
		assert.True(t, c.Empty, c.ID)
	}
	assert.Equal(t, chart.NoQuestionsMessage, resp.Charts[1].Message)
	assert.Equal(t, chart.NoDataMessage, resp.Charts[0].Message)
}

func TestGetChartPNG(t *testing.T) {
	r := newTestRouter(t)
	for _, target := range []string{
		"/api/cursos/charts/overall.png",
		"/api/cursos/charts/questions.png?width=800&height=500",
		"/api/cursos/charts/top.png",
		"/api/cursos/charts/volume.png?course=Nada",
	} {
		rec := get(t, r, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), target)
	}

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/cursos/charts/overall.png?width=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/cursos/charts/overall.png?height=99999").Code)
}

func TestGetSummary(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/cursos/summary/top")
	require.Equal(t, http.StatusOK, rec.Code)

	var s aggregate.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	require.NotNil(t, s.Ranking)
	require.Len(t, s.Ranking.Groups, 2)
	assert.Equal(t, "Excel", s.Ranking.Groups[0].Group)
	assert.InDelta(t, 7.0/3, s.Ranking.Groups[0].Mean, 1e-9)
	assert.Equal(t, "Gestão", s.Ranking.Groups[1].Group)
	assert.Equal(t, 2.0, s.Ranking.Groups[1].Mean)
}

func TestGetProfile(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/cursos/profile")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Rows)
	assert.Equal(t, 4, resp.Stats.EntityMatches)
	assert.Equal(t, "CURSO", resp.Roles["course"])
	assert.Len(t, resp.Profile, 4)
}

func TestExportXLSX(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/cursos/export.xlsx?question=O+instrutor+dominava+o+conte%C3%BAdo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cursos.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"overall", "questions", "top", "volume"}, f.GetSheetList())

	rows, err := f.GetRows("overall")
	require.NoError(t, err)
	assert.Equal(t, []string{"Discordo", "1", "100"}, rows[1])
}

func TestDashboard(t *testing.T) {
	rec := get(t, newTestRouter(t), "/?course=Excel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "3 de 4 respostas")
	assert.Contains(t, body, `src="/api/cursos/charts/overall.png?course=Excel"`)
	assert.Contains(t, body, `<option value="Excel" selected>Excel</option>`)
	assert.Contains(t, body, "P2: O instrutor dominava o conteúdo")
}
