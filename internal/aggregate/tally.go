package aggregate

import (
	"sort"

	"survey-dashboard/internal/survey"
)

// groupTally accumulates the answers of one group.
type groupTally struct {
	label     string
	answers   map[survey.Answer]int
	responses int
	scoreSum  float64
	scored    int
}

func (g *groupTally) mean() float64 {
	if g.scored == 0 {
		return 0
	}
	return g.scoreSum / float64(g.scored)
}

// tally groups the view's non-null answers by the role's value. Rows with a
// null group or a null answer are skipped. An empty role puts every row in a
// single unnamed group. Groups come back ordered by label.
func tally(v View, role string) []*groupTally {
	answerCol := v.ds.RoleIndex(survey.RoleAnswer)
	groupCol := -1
	if role != "" {
		groupCol = v.ds.RoleIndex(role)
		if groupCol < 0 {
			return nil
		}
	}

	parsed := make(map[string]survey.Answer)
	groups := make(map[string]*groupTally)
	for i := 0; i < v.Len(); i++ {
		raw := v.value(i, answerCol)
		if raw == "" {
			continue
		}
		label := ""
		if groupCol >= 0 {
			label = v.value(i, groupCol)
			if label == "" {
				continue
			}
		}

		answer, ok := parsed[raw]
		if !ok {
			answer = survey.ParseAnswer(raw)
			parsed[raw] = answer
		}

		g := groups[label]
		if g == nil {
			g = &groupTally{label: label, answers: make(map[survey.Answer]int)}
			groups[label] = g
		}
		g.answers[answer]++
		g.responses++
		if score, ok := answer.Category.Score(); ok {
			g.scoreSum += score
			g.scored++
		}
	}

	out := make([]*groupTally, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

// byVolume orders groups by response count descending, then label.
func byVolume(groups []*groupTally) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].responses != groups[j].responses {
			return groups[i].responses > groups[j].responses
		}
		return groups[i].label < groups[j].label
	})
}

// sortedAnswers returns the group's answers in category order.
func (g *groupTally) sortedAnswers() []survey.Answer {
	out := make([]survey.Answer, 0, len(g.answers))
	for a := range g.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
