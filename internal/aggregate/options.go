package aggregate

import (
	"survey-dashboard/internal/state"
	"survey-dashboard/internal/survey"
)

// FilterOptions lists the dropdown options of every filter of a domain,
// keyed by filter param.
func FilterOptions(ds *state.Dataset, d *survey.Domain) map[string][]survey.Option {
	out := make(map[string][]survey.Option, len(d.Filters))
	for _, f := range d.Filters {
		values := ds.Values(f.Role)
		if f.Role == survey.RoleQuestion {
			out[f.Param] = survey.QuestionOptions(values)
			continue
		}
		out[f.Param] = survey.ValueOptions(values)
	}
	return out
}

// FilterFromParams maps filter params (as sent by the dashboard) to roles,
// regardless of chart scope. Unknown params are ignored.
func FilterFromParams(d *survey.Domain, params map[string][]string) Filter {
	f := Filter{}
	for _, def := range d.Filters {
		f.Add(def.Role, params[def.Param]...)
	}
	return f
}

// ChartFilter is FilterFromParams restricted to the filters whose scope
// reaches chart c.
func ChartFilter(d *survey.Domain, c survey.Chart, params map[string][]string) Filter {
	f := Filter{}
	for _, def := range d.Filters {
		if def.Reaches(c.ID) {
			f.Add(def.Role, params[def.Param]...)
		}
	}
	return f
}
