package aggregate

import (
	"sort"
)

// GroupScore is the mean ordinal score and volume of one group. Mean is only
// meaningful when Scored > 0.
type GroupScore struct {
	Group     string  `json:"group"`
	Mean      float64 `json:"mean"`
	Responses int     `json:"responses"`
	Scored    int     `json:"scored"`
}

// Ranking lists groups by mean score, best first. Best is the mean of the
// first group.
type Ranking struct {
	Role    string       `json:"role"`
	Groups  []GroupScore `json:"groups"`
	Best    float64      `json:"best"`
	AxisMin float64      `json:"axis_min"`
	AxisMax float64      `json:"axis_max"`
	Empty   bool         `json:"empty"`
}

// Volume lists the largest groups by response count plus an optional
// residual bucket holding every other group.
type Volume struct {
	Role   string       `json:"role"`
	Groups []GroupScore `json:"groups"`
	Others *GroupScore  `json:"others,omitempty"`
	Total  int          `json:"total"`
	Empty  bool         `json:"empty"`
}

func score(g *groupTally) GroupScore {
	return GroupScore{Group: g.label, Mean: g.mean(), Responses: g.responses, Scored: g.scored}
}

// TopByMean returns the limit groups with the highest mean score. Groups
// without any scorable answer are left out. A limit <= 0 keeps every group.
func (e *Engine) TopByMean(v View, role string, limit int) Ranking {
	out := Ranking{Role: role, Groups: []GroupScore{}, AxisMin: ScoreMin, AxisMax: ScoreMax}
	for _, g := range tally(v, role) {
		if g.scored > 0 {
			out.Groups = append(out.Groups, score(g))
		}
	}
	sort.SliceStable(out.Groups, func(i, j int) bool {
		a, b := out.Groups[i], out.Groups[j]
		if a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		return a.Group < b.Group
	})
	if limit > 0 && len(out.Groups) > limit {
		out.Groups = out.Groups[:limit]
	}
	out.Empty = len(out.Groups) == 0
	if !out.Empty {
		out.Best = out.Groups[0].Mean
	}
	return out
}

// TopByVolume keeps the limit groups with the most responses and folds the
// rest into a single Others group whose count is their sum. The sum of all
// counts, Others included, always equals Total.
func (e *Engine) TopByVolume(v View, role string, limit int) Volume {
	groups := tally(v, role)
	out := Volume{Role: role, Groups: []GroupScore{}}
	if len(groups) == 0 {
		out.Empty = true
		return out
	}

	byVolume(groups)
	for _, g := range groups {
		out.Total += g.responses
	}

	top, rest := groups, []*groupTally(nil)
	if limit > 0 && len(groups) > limit {
		top, rest = groups[:limit], groups[limit:]
	}
	for _, g := range top {
		out.Groups = append(out.Groups, score(g))
	}
	if len(rest) > 0 {
		others := e.others(rest)
		out.Others = &others
	}
	return out
}

func (e *Engine) others(rest []*groupTally) GroupScore {
	o := GroupScore{Group: e.othersLabel}
	var scoreSum, meanSum float64
	meanGroups := 0
	for _, g := range rest {
		o.Responses += g.responses
		o.Scored += g.scored
		scoreSum += g.scoreSum
		if g.scored > 0 {
			meanSum += g.mean()
			meanGroups++
		}
	}

	switch e.othersMean {
	case OthersUnweighted:
		if meanGroups > 0 {
			o.Mean = meanSum / float64(meanGroups)
		}
	default:
		if o.Scored > 0 {
			o.Mean = scoreSum / float64(o.Scored)
		}
	}
	return o
}
