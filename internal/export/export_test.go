package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"survey-dashboard/internal/aggregate"
	"survey-dashboard/internal/chart"
	"survey-dashboard/internal/survey"
)

func TestWriteWorkbook(t *testing.T) {
	summaries := []aggregate.Summary{
		{
			ChartID: "overall",
			Kind:    survey.KindOverall,
			Overall: &aggregate.Overall{
				Total: 3,
				Shares: []aggregate.Share{
					{Answer: "Discordo", Category: survey.Unfavorable, Count: 1, Percent: 33.3},
					{Answer: "Concordo", Category: survey.Favorable, Count: 2, Percent: 66.7},
				},
			},
		},
		{
			ChartID: "volume",
			Kind:    survey.KindTreemap,
			Volume: &aggregate.Volume{
				Total:  5,
				Groups: []aggregate.GroupScore{{Group: "A", Mean: 7.0 / 3, Responses: 3, Scored: 3}},
				Others: &aggregate.GroupScore{Group: "Outros", Responses: 2},
			},
		},
		{
			ChartID:      "questions",
			Kind:         survey.KindLikert,
			Title:        "Perguntas",
			Distribution: &aggregate.Distribution{Empty: true},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, summaries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"overall", "volume", "questions"}, f.GetSheetList())

	rows, err := f.GetRows("overall")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Resposta", "Quantidade", "Percentual"},
		{"Discordo", "1", "33.3"},
		{"Concordo", "2", "66.7"},
		{"Total", "3", "100"},
	}, rows)

	rows, err = f.GetRows("volume")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Grupo", "Respostas", "Média"},
		{"A", "3", "2.33"},
		{"Outros", "2"},
		{"Total", "5"},
	}, rows)

	rows, err = f.GetRows("questions")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Perguntas"}, {chart.NoDataMessage}}, rows)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "a_b", sheetName(aggregate.Summary{ChartID: "a/b"}, 0, used))
	assert.Equal(t, "a_b_2", sheetName(aggregate.Summary{ChartID: "a:b"}, 1, used))
	assert.Equal(t, "chart3", sheetName(aggregate.Summary{}, 2, used))
	assert.Equal(t, "Sheet1_2", sheetName(aggregate.Summary{ChartID: "Sheet1"}, 3, used))

	long := sheetName(aggregate.Summary{ChartID: "a_very_long_chart_identifier_that_overflows"}, 4, used)
	assert.Len(t, []rune(long), maxSheetName)
}

func TestWriteWorkbookNoSummaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{defaultSheet}, f.GetSheetList())
}
