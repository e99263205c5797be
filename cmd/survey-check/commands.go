package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"survey-dashboard/internal/aggregate"
	"survey-dashboard/internal/analysis"
	"survey-dashboard/internal/config"
	"survey-dashboard/internal/export"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var profile bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and reconcile every domain and print join diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeDiagnostics(cmd.OutOrStdout(), l, profile)
		},
	}

	cmd.Flags().BoolVar(&profile, "profile", false, "Also print the column quality profile of each domain")
	return cmd
}

func writeDiagnostics(w io.Writer, l *loaded, profile bool) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Domain", "Responses", "Question matches", "Entity matches", "Duplicate keys", "Roles"})

	for _, id := range l.snapshot.Domains() {
		ds, _ := l.snapshot.Dataset(id)
		st := ds.Stats

		cols := ds.RoleColumns()
		roles := make([]string, 0, len(cols))
		for role, col := range cols {
			roles = append(roles, role+"="+col)
		}
		sort.Strings(roles)

		table.Append([]string{
			id,
			strconv.Itoa(st.Responses),
			strconv.Itoa(st.QuestionMatches),
			strconv.Itoa(st.EntityMatches),
			strconv.Itoa(st.DuplicateQuestionKeys + st.DuplicateEntityKeys),
			strings.Join(roles, " "),
		})
	}
	table.Render()

	if !profile {
		return nil
	}

	profiler := analysis.NewProfiler()
	for _, id := range l.snapshot.Domains() {
		ds, _ := l.snapshot.Dataset(id)
		fmt.Fprintf(w, "\n%s\n", id)

		t := tablewriter.NewWriter(w)
		t.SetHeader([]string{"Column", "Type", "Null rate", "Distinct", "Quality"})
		for _, p := range profiler.ProfileAllColumns(ds.Frame) {
			t.Append([]string{
				p.ColumnName,
				p.Type,
				strconv.FormatFloat(p.NullRate, 'f', 3, 64),
				strconv.Itoa(p.DistinctCount),
				strconv.FormatFloat(p.QualityScore, 'f', 2, 64),
			})
		}
		t.Render()
	}
	return nil
}

// parseFilters turns repeated param=value flags into query-style params.
func parseFilters(raw []string) (map[string][]string, error) {
	params := map[string][]string{}
	for _, f := range raw {
		param, value, ok := strings.Cut(f, "=")
		if !ok || param == "" {
			return nil, fmt.Errorf("invalid filter %q, want param=value", f)
		}
		params[param] = append(params[param], value)
	}
	return params, nil
}

func newSummaryCmd(opts *globalOptions) *cobra.Command {
	var (
		domain  string
		chartID string
		filters []string
		others  string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the summary table behind one chart as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseFilters(filters)
			if err != nil {
				return err
			}
			l, err := load(cmd.Context(), opts)
			if err != nil {
				return err
			}

			d, err := l.catalog.Lookup(domain)
			if err != nil {
				return err
			}
			c, err := d.Chart(chartID)
			if err != nil {
				return err
			}
			ds, _ := l.snapshot.Dataset(d.ID)

			mean := l.cfg.OthersMean
			switch others {
			case "":
			case config.OthersWeighted, config.OthersUnweighted:
				mean = others
			default:
				return fmt.Errorf("invalid --others-mean %q", others)
			}
			engine := aggregate.NewEngine(aggregate.WithOthersMean(aggregate.OthersMean(mean)))
			s := engine.Summarize(aggregate.ChartFilter(d, c, params).Apply(ds), c)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Domain id (required)")
	cmd.Flags().StringVar(&chartID, "chart", "", "Chart id (required)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as param=value, repeatable")
	cmd.Flags().StringVar(&others, "others-mean", "", "Others bucket mean: weighted or unweighted")

	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("chart")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		domain  string
		output  string
		filters []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every chart summary of a domain to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseFilters(filters)
			if err != nil {
				return err
			}
			l, err := load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			d, err := l.catalog.Lookup(domain)
			if err != nil {
				return err
			}
			ds, _ := l.snapshot.Dataset(d.ID)

			engine := aggregate.NewEngine(aggregate.WithOthersMean(aggregate.OthersMean(l.cfg.OthersMean)))
			summaries := make([]aggregate.Summary, 0, len(d.Charts))
			for _, c := range d.Charts {
				summaries = append(summaries, engine.Summarize(aggregate.ChartFilter(d, c, params).Apply(ds), c))
			}

			if output == "" {
				output = d.ID + ".xlsx"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := export.WriteWorkbook(f, summaries); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Domain id (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <domain>.xlsx)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as param=value, repeatable")

	_ = cmd.MarkFlagRequired("domain")
	return cmd
}
