package survey

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Roles every domain must resolve.
const (
	RoleSurveyID = "survey_id"
	RoleQuestion = "question"
	RoleAnswer   = "answer"
)

// ChartKind selects the aggregation behind a chart.
type ChartKind string

const (
	KindLikert  ChartKind = "likert"
	KindOverall ChartKind = "overall"
	KindRanking ChartKind = "ranking"
	KindTreemap ChartKind = "treemap"
	KindPopular ChartKind = "popular"
)

// Default suffixes for overlapping non-key columns of a left join.
var DefaultSuffixes = [2]string{"_x", "_y"}

var (
	ErrUnknownDomain = errors.New("unknown survey domain")
	ErrUnknownChart  = errors.New("unknown chart")
)

//go:embed domains.yaml
var defaultDomains []byte

// Files names the three raw tables of a domain.
type Files struct {
	Responses string `yaml:"responses"`
	Questions string `yaml:"questions"`
	Entities  string `yaml:"entities"`
}

// Join describes one left join.
type Join struct {
	Keys     []string `yaml:"keys"`
	Suffixes []string `yaml:"suffixes"`
}

// SuffixPair returns the configured suffixes or the defaults.
func (j Join) SuffixPair() [2]string {
	if len(j.Suffixes) == 2 {
		return [2]string{j.Suffixes[0], j.Suffixes[1]}
	}
	return DefaultSuffixes
}

// Resolution collapses the suffixed variants of one field into a canonical
// column. The first candidate present wins; other present candidates are
// renamed when listed in Rename and dropped otherwise.
type Resolution struct {
	Canonical  string            `yaml:"canonical"`
	Candidates []string          `yaml:"candidates"`
	Rename     map[string]string `yaml:"rename"`
}

// Filter is one dropdown control of a tab. Scope lists the chart ids the
// selection narrows; an empty scope reaches every chart.
type Filter struct {
	Param string   `yaml:"param"`
	Role  string   `yaml:"role"`
	Label string   `yaml:"label"`
	Scope []string `yaml:"scope"`
}

// Reaches reports whether the filter narrows the given chart.
func (f Filter) Reaches(chartID string) bool {
	if len(f.Scope) == 0 {
		return true
	}
	for _, id := range f.Scope {
		if id == chartID {
			return true
		}
	}
	return false
}

// Chart is one chart of a tab.
type Chart struct {
	ID         string    `yaml:"id"`
	Kind       ChartKind `yaml:"kind"`
	Role       string    `yaml:"role"`
	Limit      int       `yaml:"limit"`
	LabelWidth int       `yaml:"label_width"`
	Title      string    `yaml:"title"`
}

// Domain is the full configuration record of one survey type.
type Domain struct {
	ID           string              `yaml:"id"`
	Title        string              `yaml:"title"`
	Files        Files               `yaml:"files"`
	QuestionJoin Join                `yaml:"question_join"`
	EntityJoin   Join                `yaml:"entity_join"`
	Resolve      []Resolution        `yaml:"resolve"`
	Drop         []string            `yaml:"drop"`
	Roles        map[string][]string `yaml:"roles"`
	Filters      []Filter            `yaml:"filters"`
	Charts       []Chart             `yaml:"charts"`
}

// Chart looks up a chart by id.
func (d *Domain) Chart(id string) (Chart, error) {
	for _, c := range d.Charts {
		if c.ID == id {
			return c, nil
		}
	}
	return Chart{}, fmt.Errorf("%w: %s/%s", ErrUnknownChart, d.ID, id)
}

// Validate checks that the record can drive reconciliation and charts.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("domain id is required")
	}
	if d.Files.Responses == "" || d.Files.Questions == "" || d.Files.Entities == "" {
		return fmt.Errorf("domain %s: responses, questions and entities files are required", d.ID)
	}
	if len(d.QuestionJoin.Keys) == 0 || len(d.EntityJoin.Keys) == 0 {
		return fmt.Errorf("domain %s: join keys are required", d.ID)
	}
	for _, j := range []Join{d.QuestionJoin, d.EntityJoin} {
		if len(j.Suffixes) != 0 && len(j.Suffixes) != 2 {
			return fmt.Errorf("domain %s: join suffixes must be a pair", d.ID)
		}
	}
	for _, role := range []string{RoleSurveyID, RoleQuestion, RoleAnswer} {
		if len(d.Roles[role]) == 0 {
			return fmt.Errorf("domain %s: role %q is required", d.ID, role)
		}
	}
	seen := make(map[string]bool, len(d.Charts))
	for _, c := range d.Charts {
		if seen[c.ID] {
			return fmt.Errorf("domain %s: duplicate chart %q", d.ID, c.ID)
		}
		seen[c.ID] = true
		switch c.Kind {
		case KindOverall:
		case KindLikert, KindRanking, KindTreemap, KindPopular:
			if len(d.Roles[c.Role]) == 0 {
				return fmt.Errorf("domain %s: chart %q references unknown role %q", d.ID, c.ID, c.Role)
			}
		default:
			return fmt.Errorf("domain %s: chart %q has unknown kind %q", d.ID, c.ID, c.Kind)
		}
	}
	for _, f := range d.Filters {
		if f.Param == "" || len(d.Roles[f.Role]) == 0 {
			return fmt.Errorf("domain %s: filter %q references unknown role %q", d.ID, f.Param, f.Role)
		}
		for _, id := range f.Scope {
			if !seen[id] {
				return fmt.Errorf("domain %s: filter %q is scoped to unknown chart %q", d.ID, f.Param, id)
			}
		}
	}
	return nil
}

// Catalog is the ordered set of configured domains.
type Catalog struct {
	Domains []Domain `yaml:"domains"`
}

// Lookup returns the domain with the given id.
func (c *Catalog) Lookup(id string) (*Domain, error) {
	for i := range c.Domains {
		if c.Domains[i].ID == id {
			return &c.Domains[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, id)
}

// IDs lists domain ids in configuration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.Domains))
	for _, d := range c.Domains {
		ids = append(ids, d.ID)
	}
	return ids
}

// DefaultCatalog returns the embedded configuration of the four survey tabs.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(bytes.NewReader(defaultDomains))
}

// LoadCatalog reads the catalog from path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening domains file: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding domains: %w", err)
	}
	if len(c.Domains) == 0 {
		return nil, errors.New("no domains configured")
	}
	ids := make(map[string]bool, len(c.Domains))
	for i := range c.Domains {
		d := &c.Domains[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if ids[d.ID] {
			return nil, fmt.Errorf("duplicate domain %q", d.ID)
		}
		ids[d.ID] = true
	}
	return &c, nil
}
