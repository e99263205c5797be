package aggregate

import (
	"survey-dashboard/internal/state"
)

// Filter restricts rows by role value. Values of one role are OR'ed, roles
// are AND'ed, and a role with no values does not restrict anything.
type Filter map[string][]string

// Add appends allowed values for role, skipping empty strings.
func (f Filter) Add(role string, values ...string) {
	for _, v := range values {
		if v != "" {
			f[role] = append(f[role], v)
		}
	}
}

// IsEmpty reports whether the filter restricts nothing.
func (f Filter) IsEmpty() bool {
	for _, values := range f {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// View is a zero-copy selection of dataset rows.
type View struct {
	ds   *state.Dataset
	rows []int
}

// All selects every row of ds.
func All(ds *state.Dataset) View {
	rows := make([]int, ds.Len())
	for i := range rows {
		rows[i] = i
	}
	return View{ds: ds, rows: rows}
}

// Len returns the number of selected rows.
func (v View) Len() int {
	return len(v.rows)
}

func (v View) value(i int, col int) string {
	return v.ds.Frame.Value(v.rows[i], col)
}

// Apply selects the rows of ds that pass the filter.
func (f Filter) Apply(ds *state.Dataset) View {
	if f.IsEmpty() {
		return All(ds)
	}

	type roleSet struct {
		col     int
		allowed map[string]bool
	}
	var sets []roleSet
	for role, values := range f {
		if len(values) == 0 {
			continue
		}
		allowed := make(map[string]bool, len(values))
		for _, v := range values {
			allowed[v] = true
		}
		sets = append(sets, roleSet{col: ds.RoleIndex(role), allowed: allowed})
	}

	rows := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		pass := true
		for _, s := range sets {
			// Unresolved roles read as null and never match.
			if !s.allowed[ds.Frame.Value(i, s.col)] {
				pass = false
				break
			}
		}
		if pass {
			rows = append(rows, i)
		}
	}
	return View{ds: ds, rows: rows}
}
