package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"survey-dashboard/internal/state"
)

// JoinStats describes the outcome of one left join.
type JoinStats struct {
	Matched       int
	DuplicateKeys int
}

// keySep never appears in CSV cell values we care about.
const keySep = "\x1f"

// LeftJoin joins every row of left with the first row of right sharing the
// key columns. The result has exactly one row per left row; unmatched rows
// get null right-hand fields. Non-key columns present on both sides are
// renamed with suffixes[0] (left) and suffixes[1] (right). Key columns appear
// once, taken from the left side.
//
// Rows with a null key never match. Numeric keys compare by value, so "10"
// matches "10.0".
func LeftJoin(left, right *state.DataFrame, keys []string, suffixes [2]string) (*state.DataFrame, JoinStats, error) {
	var stats JoinStats
	if len(keys) == 0 {
		return nil, stats, fmt.Errorf("join requires at least one key")
	}

	leftKeys, err := keyIndices(left, keys)
	if err != nil {
		return nil, stats, fmt.Errorf("left table %s: %w", left.FileName, err)
	}
	rightKeys, err := keyIndices(right, keys)
	if err != nil {
		return nil, stats, fmt.Errorf("right table %s: %w", right.FileName, err)
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	leftCols := make(map[string]bool, len(left.Headers))
	for _, h := range left.Headers {
		leftCols[h] = true
	}
	rightCols := make(map[string]bool, len(right.Headers))
	for _, h := range right.Headers {
		rightCols[h] = true
	}

	headers := make([]string, 0, len(left.Headers)+len(right.Headers))
	for _, h := range left.Headers {
		if !isKey[h] && rightCols[h] {
			h += suffixes[0]
		}
		headers = append(headers, h)
	}
	var rightTake []int
	for i, h := range right.Headers {
		if isKey[h] {
			continue
		}
		if leftCols[h] {
			h += suffixes[1]
		}
		headers = append(headers, h)
		rightTake = append(rightTake, i)
	}

	index := make(map[string]int, right.Len())
	for i := range right.Rows {
		k, ok := joinKey(right, i, rightKeys)
		if !ok {
			continue
		}
		if _, dup := index[k]; dup {
			stats.DuplicateKeys++
			continue
		}
		index[k] = i
	}

	rows := make([][]string, len(left.Rows))
	for i := range left.Rows {
		row := make([]string, len(headers))
		for c := range left.Headers {
			row[c] = left.Value(i, c)
		}
		if k, ok := joinKey(left, i, leftKeys); ok {
			if j, found := index[k]; found {
				stats.Matched++
				for n, c := range rightTake {
					row[len(left.Headers)+n] = right.Value(j, c)
				}
			}
		}
		rows[i] = row
	}

	return &state.DataFrame{
		Headers:  headers,
		Rows:     rows,
		FilePath: left.FilePath,
		FileName: left.FileName,
	}, stats, nil
}

func keyIndices(df *state.DataFrame, keys []string) ([]int, error) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		idx[i] = df.ColumnIndex(k)
		if idx[i] < 0 {
			return nil, fmt.Errorf("missing join key column %q", k)
		}
	}
	return idx, nil
}

func joinKey(df *state.DataFrame, row int, cols []int) (string, bool) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := df.Value(row, c)
		if v == "" {
			return "", false
		}
		parts[i] = canonicalKey(v)
	}
	return strings.Join(parts, keySep), true
}

// canonicalKey renders integral numbers without a fractional part.
func canonicalKey(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return v
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
