package state

import (
	"strconv"
	"strings"
	"time"
)

// DataFrame is a table loaded from a source, or produced by reconciliation.
// Cells are raw strings; null cells are represented by the empty string once
// the frame has been normalised with NormalizeNulls.
type DataFrame struct {
	Headers  []string
	Rows     [][]string
	FilePath string
	FileName string
}

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"None": true,
	"NaN":  true,
	"nan":  true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
}

// IsNull reports whether a raw cell value denotes a missing value.
func IsNull(v string) bool {
	return nullTokens[strings.TrimSpace(v)]
}

// Len returns the number of rows.
func (df *DataFrame) Len() int {
	if df == nil {
		return 0
	}
	return len(df.Rows)
}

// ColumnIndex returns the position of the named column or -1.
func (df *DataFrame) ColumnIndex(name string) int {
	for i, h := range df.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the frame has the named column.
func (df *DataFrame) HasColumn(name string) bool {
	return df.ColumnIndex(name) >= 0
}

// Value returns the cell at (row, col), or "" when col is out of range.
func (df *DataFrame) Value(row, col int) string {
	if col < 0 || row < 0 || row >= len(df.Rows) {
		return ""
	}
	r := df.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// NullColumn reports whether every cell of the column is null. A frame
// without rows counts as null.
func (df *DataFrame) NullColumn(col int) bool {
	for i := range df.Rows {
		if df.Value(i, col) != "" {
			return false
		}
	}
	return true
}

// NormalizeNulls pads short rows to the header width and replaces null
// tokens with "". It modifies the frame in place and is meant to run once,
// right after loading.
func (df *DataFrame) NormalizeNulls() {
	width := len(df.Headers)
	for i, row := range df.Rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
			df.Rows[i] = row
		}
		for j, v := range row {
			if IsNull(v) {
				row[j] = ""
			} else {
				row[j] = strings.TrimSpace(v)
			}
		}
	}
}

// NumericKind classifies a column by the numbers it holds.
type NumericKind int

const (
	NotNumeric NumericKind = iota
	Integer
	Decimal
)

// numericSample is how many leading rows NumericColumns inspects.
const numericSample = 20

// NumericColumns classifies every column that has at least one non-null
// cell among the leading rows. Columns mixing integers and decimals are
// Decimal; any non-numeric cell makes the column NotNumeric.
func (df *DataFrame) NumericColumns() map[int]NumericKind {
	kinds := make(map[int]NumericKind, len(df.Headers))
	n := min(numericSample, df.Len())
	for col := range df.Headers {
		kind, seen := Integer, false
		for i := 0; i < n && kind != NotNumeric; i++ {
			v := df.Value(i, col)
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				kind = Decimal
				continue
			}
			kind = NotNumeric
		}
		if seen {
			kinds[col] = kind
		}
	}
	return kinds
}

// ReconcileStats records how well the joins of a domain matched.
type ReconcileStats struct {
	Responses             int `json:"responses"`
	QuestionMatches       int `json:"question_matches"`
	EntityMatches         int `json:"entity_matches"`
	DuplicateQuestionKeys int `json:"duplicate_question_keys"`
	DuplicateEntityKeys   int `json:"duplicate_entity_keys"`
}

// Dataset is the reconciled table of one survey domain together with the
// columns its roles resolved to. It is never modified after construction.
type Dataset struct {
	Domain string
	Title  string
	Frame  *DataFrame
	Stats  ReconcileStats

	roles   map[string]int
	columns map[string]string
}

// NewDataset binds resolved role columns to a reconciled frame. Roles mapped
// to a column the frame does not have stay unresolved.
func NewDataset(domain, title string, frame *DataFrame, roleColumns map[string]string, stats ReconcileStats) *Dataset {
	ds := &Dataset{
		Domain:  domain,
		Title:   title,
		Frame:   frame,
		Stats:   stats,
		roles:   make(map[string]int, len(roleColumns)),
		columns: make(map[string]string, len(roleColumns)),
	}
	for role, col := range roleColumns {
		idx := frame.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		ds.roles[role] = idx
		ds.columns[role] = col
	}
	return ds
}

// Len returns the number of response rows.
func (d *Dataset) Len() int {
	return d.Frame.Len()
}

// RoleIndex returns the column index for role, or -1 when unresolved.
func (d *Dataset) RoleIndex(role string) int {
	if idx, ok := d.roles[role]; ok {
		return idx
	}
	return -1
}

// RoleColumn returns the column name a role resolved to.
func (d *Dataset) RoleColumn(role string) (string, bool) {
	col, ok := d.columns[role]
	return col, ok
}

// RoleColumns returns a copy of the role to column mapping.
func (d *Dataset) RoleColumns() map[string]string {
	out := make(map[string]string, len(d.columns))
	for k, v := range d.columns {
		out[k] = v
	}
	return out
}

// Value returns the role's value on row, "" when null or unresolved.
func (d *Dataset) Value(row int, role string) string {
	return d.Frame.Value(row, d.RoleIndex(role))
}

// Values returns every non-null value of role, in row order.
func (d *Dataset) Values(role string) []string {
	idx := d.RoleIndex(role)
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, d.Len())
	for i := range d.Frame.Rows {
		if v := d.Frame.Value(i, idx); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Snapshot is the immutable data context shared by every request: one
// reconciled dataset per survey domain, built once at startup.
type Snapshot struct {
	LoadedAt time.Time

	order    []string
	datasets map[string]*Dataset
}

// NewSnapshot keeps datasets in the given order.
func NewSnapshot(datasets ...*Dataset) *Snapshot {
	s := &Snapshot{
		LoadedAt: time.Now(),
		datasets: make(map[string]*Dataset, len(datasets)),
	}
	for _, ds := range datasets {
		if _, ok := s.datasets[ds.Domain]; !ok {
			s.order = append(s.order, ds.Domain)
		}
		s.datasets[ds.Domain] = ds
	}
	return s
}

// Dataset returns the reconciled dataset of a domain.
func (s *Snapshot) Dataset(domain string) (*Dataset, bool) {
	ds, ok := s.datasets[domain]
	return ds, ok
}

// Domains lists the loaded domains in load order.
func (s *Snapshot) Domains() []string {
	return append([]string(nil), s.order...)
}
