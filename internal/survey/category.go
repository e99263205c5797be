package survey

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Category is a point on the three-point agreement scale. Unmapped holds any
// answer that is not one of the three known labels.
type Category int

const (
	Unmapped Category = iota
	Unfavorable
	Neutral
	Favorable
)

// Categories lists the known categories in display order.
var Categories = []Category{Unfavorable, Neutral, Favorable}

var categoryLabels = map[Category]string{
	Unfavorable: "Discordo",
	Neutral:     "Desconheço",
	Favorable:   "Concordo",
}

var categoryColors = map[Category]string{
	Unfavorable: "#DC143C",
	Neutral:     "#FFD700",
	Favorable:   "#008450",
}

// aliases are stored folded; see foldAnswer.
var categoryAliases = map[string]Category{}

func init() {
	for c, label := range categoryLabels {
		categoryAliases[foldAnswer(label)] = c
	}
	for alias, c := range map[string]Category{
		"disagree": Unfavorable,
		"unknown":  Neutral,
		"agree":    Favorable,
	} {
		categoryAliases[foldAnswer(alias)] = c
	}
}

// Label returns the canonical display label, or "" for Unmapped.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Color returns the hex colour used for the category in charts.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return "#6C757D"
}

// Score maps the category onto the ordinal 1..3 scale. Unmapped answers
// carry no score.
func (c Category) Score() (float64, bool) {
	switch c {
	case Unfavorable:
		return 1, true
	case Neutral:
		return 2, true
	case Favorable:
		return 3, true
	}
	return 0, false
}

func (c Category) String() string {
	if c == Unmapped {
		return "unmapped"
	}
	return c.Label()
}

// ParseCategory classifies a raw answer. Matching ignores case, surrounding
// whitespace and Unicode composition differences.
func ParseCategory(raw string) Category {
	if c, ok := categoryAliases[foldAnswer(raw)]; ok {
		return c
	}
	return Unmapped
}

// Casers keep state, so a fresh one is built per call.
func foldAnswer(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Answer is a classified answer that keeps the raw label for unmapped values.
type Answer struct {
	Category Category
	Raw      string
}

// ParseAnswer classifies raw and keeps a display label.
func ParseAnswer(raw string) Answer {
	c := ParseCategory(raw)
	if c != Unmapped {
		return Answer{Category: c, Raw: c.Label()}
	}
	return Answer{Category: Unmapped, Raw: strings.TrimSpace(raw)}
}

// Label is the display label of the answer.
func (a Answer) Label() string {
	return a.Raw
}

// Less orders answers by category first, unmapped answers last by label.
func (a Answer) Less(b Answer) bool {
	if a.Category != b.Category {
		if a.Category == Unmapped {
			return false
		}
		if b.Category == Unmapped {
			return true
		}
		return a.Category < b.Category
	}
	return a.Raw < b.Raw
}
