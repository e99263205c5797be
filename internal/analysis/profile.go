package analysis

import (
	"math"
	"time"

	"survey-dashboard/internal/state"
)

// ColumnProfile holds quality metrics for a column
type ColumnProfile struct {
	ColumnName      string  `json:"column_name"`
	Type            string  `json:"type"`
	TotalRows       int     `json:"total_rows"`
	NonNullRows     int     `json:"non_null_rows"`
	NullRate        float64 `json:"null_rate"`
	DistinctCount   int     `json:"distinct_count"`
	UniquenessRatio float64 `json:"uniqueness_ratio"`
	Entropy         float64 `json:"entropy"`
	QualityScore    float64 `json:"quality_score"` // 0-1
}

// Profiler computes column profiles of reconciled tables. A high null rate on
// a metadata column means the corresponding join matched poorly.
type Profiler struct{}

func NewProfiler() *Profiler {
	return &Profiler{}
}

// ProfileColumn analyzes quality metrics for a single column
func (p *Profiler) ProfileColumn(df *state.DataFrame, colIdx int) ColumnProfile {
	return profileColumn(df, colIdx, df.NumericColumns())
}

// ProfileAllColumns profiles all columns in a dataframe
func (p *Profiler) ProfileAllColumns(df *state.DataFrame) []ColumnProfile {
	kinds := df.NumericColumns()
	profiles := make([]ColumnProfile, len(df.Headers))
	for i := range df.Headers {
		profiles[i] = profileColumn(df, i, kinds)
	}
	return profiles
}

func profileColumn(df *state.DataFrame, colIdx int, kinds map[int]state.NumericKind) ColumnProfile {
	kind, seen := kinds[colIdx]
	profile := ColumnProfile{
		ColumnName: df.Headers[colIdx],
		Type:       inferColumnType(df, colIdx, kind, seen),
		TotalRows:  df.Len(),
	}

	uniqueValues := make(map[string]int)
	nonNullCount := 0
	for i := range df.Rows {
		value := df.Value(i, colIdx)
		if value == "" {
			continue
		}
		nonNullCount++
		uniqueValues[value]++
	}

	profile.NonNullRows = nonNullCount
	profile.DistinctCount = len(uniqueValues)

	if profile.TotalRows > 0 {
		profile.NullRate = float64(profile.TotalRows-nonNullCount) / float64(profile.TotalRows)
	}
	if nonNullCount > 0 {
		profile.UniquenessRatio = float64(profile.DistinctCount) / float64(nonNullCount)
	}

	profile.Entropy = entropy(uniqueValues, nonNullCount)
	profile.QualityScore = qualityScore(profile)
	return profile
}

// entropy computes Shannon entropy in bits
func entropy(valueCounts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, count := range valueCounts {
		if count > 0 {
			p := float64(count) / float64(total)
			h -= p * math.Log2(p)
		}
	}
	return h
}

// qualityScore penalises nulls and entropy far from ~4 bits.
func qualityScore(profile ColumnProfile) float64 {
	score := 1.0 - profile.NullRate

	idealEntropy := 4.0
	entropyPenalty := math.Abs(profile.Entropy-idealEntropy) / 10.0
	score *= math.Max(0.5, 1.0-entropyPenalty)

	return math.Max(0, math.Min(1, score))
}

// inferColumnType names the column type. Numeric kinds come from the
// frame; everything else is a date when every sampled cell parses as one.
func inferColumnType(df *state.DataFrame, colIdx int, kind state.NumericKind, seen bool) string {
	switch {
	case !seen:
		return "empty"
	case kind == state.Integer:
		return "int"
	case kind == state.Decimal:
		return "float"
	}

	for i := 0; i < min(20, df.Len()); i++ {
		if val := df.Value(i, colIdx); val != "" && !isDateString(val) {
			return "string"
		}
	}
	return "date"
}

func isDateString(val string) bool {
	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"02/01/2006",
		"2006/01/02",
	}
	for _, f := range formats {
		if _, err := time.Parse(f, val); err == nil {
			return true
		}
	}
	return false
}
