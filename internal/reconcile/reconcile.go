// Package reconcile builds the denormalised per-domain survey table: responses
// left-joined with question text and entity metadata, with suffixed column
// variants collapsed to canonical names.
package reconcile

import (
	"fmt"

	"survey-dashboard/internal/state"
	"survey-dashboard/internal/survey"
)

// Tables are the raw inputs of one domain.
type Tables struct {
	Responses *state.DataFrame
	Questions *state.DataFrame
	Entities  *state.DataFrame
}

// Reconcile joins the domain tables and resolves role columns. Unmatched keys
// produce null fields; only structural problems (missing key columns) fail.
func Reconcile(d *survey.Domain, t Tables) (*state.Dataset, error) {
	if t.Responses == nil || t.Questions == nil || t.Entities == nil {
		return nil, fmt.Errorf("domain %s: missing raw table", d.ID)
	}

	withQuestions, qStats, err := LeftJoin(t.Responses, t.Questions, d.QuestionJoin.Keys, d.QuestionJoin.SuffixPair())
	if err != nil {
		return nil, fmt.Errorf("domain %s: joining questions: %w", d.ID, err)
	}
	joined, eStats, err := LeftJoin(withQuestions, t.Entities, d.EntityJoin.Keys, d.EntityJoin.SuffixPair())
	if err != nil {
		return nil, fmt.Errorf("domain %s: joining entities: %w", d.ID, err)
	}

	for _, r := range d.Resolve {
		resolveColumns(joined, r)
	}
	dropColumns(joined, d.Drop...)

	if joined.Len() != t.Responses.Len() {
		return nil, fmt.Errorf("domain %s: reconciled %d rows from %d responses", d.ID, joined.Len(), t.Responses.Len())
	}

	roles := make(map[string]string, len(d.Roles))
	for role, chain := range d.Roles {
		if col, ok := ResolveRole(joined, chain); ok {
			roles[role] = col
		}
	}

	stats := state.ReconcileStats{
		Responses:             t.Responses.Len(),
		QuestionMatches:       qStats.Matched,
		EntityMatches:         eStats.Matched,
		DuplicateQuestionKeys: qStats.DuplicateKeys,
		DuplicateEntityKeys:   eStats.DuplicateKeys,
	}
	return state.NewDataset(d.ID, d.Title, joined, roles, stats), nil
}

// ResolveRole picks the column for a display role: the first column of chain
// that exists and is not entirely null, else the first that exists.
func ResolveRole(df *state.DataFrame, chain []string) (string, bool) {
	first := ""
	for _, col := range chain {
		idx := df.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		if first == "" {
			first = col
		}
		if !df.NullColumn(idx) {
			return col, true
		}
	}
	return first, first != ""
}

func resolveColumns(df *state.DataFrame, r survey.Resolution) {
	if df.HasColumn(r.Canonical) {
		return
	}
	winner := ""
	var losers []string
	for _, c := range r.Candidates {
		if !df.HasColumn(c) {
			continue
		}
		if winner == "" {
			winner = c
			continue
		}
		losers = append(losers, c)
	}
	if winner == "" {
		return
	}
	df.Headers[df.ColumnIndex(winner)] = r.Canonical
	for _, c := range losers {
		if to, ok := r.Rename[c]; ok && !df.HasColumn(to) {
			df.Headers[df.ColumnIndex(c)] = to
			continue
		}
		dropColumns(df, c)
	}
}

func dropColumns(df *state.DataFrame, names ...string) {
	drop := make(map[int]bool, len(names))
	for _, n := range names {
		if idx := df.ColumnIndex(n); idx >= 0 {
			drop[idx] = true
		}
	}
	if len(drop) == 0 {
		return
	}

	keep := make([]int, 0, len(df.Headers)-len(drop))
	headers := make([]string, 0, len(df.Headers)-len(drop))
	for i, h := range df.Headers {
		if !drop[i] {
			keep = append(keep, i)
			headers = append(headers, h)
		}
	}
	for r, row := range df.Rows {
		out := make([]string, len(keep))
		for i, c := range keep {
			if c < len(row) {
				out[i] = row[c]
			}
		}
		df.Rows[r] = out
	}
	df.Headers = headers
}
