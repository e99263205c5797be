package survey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const questionLabelWords = 6

// Option is one entry of a filter dropdown.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// QuestionOptions builds the short "P{i}: ..." labels over the sorted distinct
// question texts. The option value stays the full question text.
func QuestionOptions(questions []string) []Option {
	unique := distinctSorted(questions)
	options := make([]Option, 0, len(unique))
	for i, q := range unique {
		options = append(options, Option{
			Label: fmt.Sprintf("P%d: %s", i+1, shortQuestion(q)),
			Value: q,
		})
	}
	return options
}

// ValueOptions builds options whose label is the value itself.
func ValueOptions(values []string) []Option {
	unique := distinctSorted(values)
	options := make([]Option, 0, len(unique))
	for _, v := range unique {
		options = append(options, Option{Label: v, Value: v})
	}
	return options
}

func shortQuestion(q string) string {
	words := strings.Fields(q)
	if len(words) < questionLabelWords {
		return q
	}
	return strings.Join(words[:questionLabelWords], " ") + "..."
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return naturalLess(out[i], out[j]) })
	return out
}

// naturalLess orders numeric values (survey ids) by value and everything else
// lexically.
func naturalLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
