package aggregate

import (
	"sort"

	"survey-dashboard/internal/survey"
)

// CategoryCount is one (group, answer) cell of a distribution.
type CategoryCount struct {
	Group    string          `json:"group"`
	Answer   string          `json:"answer"`
	Category survey.Category `json:"-"`
	Count    int             `json:"count"`
	Percent  float64         `json:"percent"`
	SortKey  float64         `json:"sort_key"`
}

// GroupTotal is the response count of one group, in output order.
type GroupTotal struct {
	Group   string  `json:"group"`
	Count   int     `json:"count"`
	SortKey float64 `json:"sort_key"`
}

// Distribution is the per-group category breakdown. Rows are ordered by
// favorable percentage descending, group label ascending, then category.
type Distribution struct {
	Role   string          `json:"role"`
	Rows   []CategoryCount `json:"rows"`
	Groups []GroupTotal    `json:"groups"`
	Empty  bool            `json:"empty"`
}

// Share is one slice of the overall distribution.
type Share struct {
	Answer   string          `json:"answer"`
	Category survey.Category `json:"-"`
	Count    int             `json:"count"`
	Percent  float64         `json:"percent"`
}

// Overall is the category distribution of the whole view.
type Overall struct {
	Shares []Share `json:"shares"`
	Total  int     `json:"total"`
	Empty  bool    `json:"empty"`
}

// DistributionBy counts answers per group of role and converts them to
// percentages of the group total.
func (e *Engine) DistributionBy(v View, role string) Distribution {
	return distribution(role, tally(v, role))
}

// PopularDistribution is DistributionBy restricted to the limit groups with
// the most responses. A limit <= 0 keeps every group.
func (e *Engine) PopularDistribution(v View, role string, limit int) Distribution {
	groups := tally(v, role)
	byVolume(groups)
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return distribution(role, groups)
}

// Overall returns the share of each answer across the view.
func (e *Engine) Overall(v View) Overall {
	groups := tally(v, "")
	if len(groups) == 0 {
		return Overall{Empty: true, Shares: []Share{}}
	}

	g := groups[0]
	out := Overall{Total: g.responses}
	for _, a := range g.sortedAnswers() {
		n := g.answers[a]
		out.Shares = append(out.Shares, Share{
			Answer:   a.Label(),
			Category: a.Category,
			Count:    n,
			Percent:  percent(n, g.responses),
		})
	}
	return out
}

func distribution(role string, groups []*groupTally) Distribution {
	out := Distribution{Role: role, Rows: []CategoryCount{}, Groups: []GroupTotal{}}
	if len(groups) == 0 {
		out.Empty = true
		return out
	}

	totals := make([]GroupTotal, len(groups))
	for i, g := range groups {
		favorable := 0
		for a, n := range g.answers {
			if a.Category == survey.Favorable {
				favorable += n
			}
		}
		totals[i] = GroupTotal{Group: g.label, Count: g.responses, SortKey: percent(favorable, g.responses)}
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := totals[order[a]], totals[order[b]]
		if ta.SortKey != tb.SortKey {
			return ta.SortKey > tb.SortKey
		}
		return ta.Group < tb.Group
	})

	for _, i := range order {
		g, total := groups[i], totals[i]
		out.Groups = append(out.Groups, total)
		for _, a := range g.sortedAnswers() {
			n := g.answers[a]
			out.Rows = append(out.Rows, CategoryCount{
				Group:    g.label,
				Answer:   a.Label(),
				Category: a.Category,
				Count:    n,
				Percent:  percent(n, g.responses),
				SortKey:  total.SortKey,
			})
		}
	}
	return out
}
