package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlcheck/sqlcheck/internal/cliopt"
	"github.com/sqlcheck/sqlcheck/internal/cliutil"
	"github.com/sqlcheck/sqlcheck/sqlcheck"
	"github.com/sqlcheck/sqlcheck/sqlcheck/constraint"
	"github.com/sqlcheck/sqlcheck/sqlcheck/pgcheck"
)

type verifyItem struct {
	Name    string   `json:"name" yaml:"name"`
	OK      bool     `json:"ok" yaml:"ok"`
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Problem string   `json:"problem,omitempty" yaml:"problem,omitempty"`
}

func NewVerifyCmd(g *cliopt.GlobalOptions) *cobra.Command {
	var mf modelFlags
	var recorded bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check compiled bodies with the PostgreSQL parser",
		Long: `verify parses every compiled constraint body with the PostgreSQL parser and
checks that the columns it references are exactly the fields recorded for it.
With --recorded it also compares the bodies applied to the database against
the model, ignoring formatting differences.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			all := m.Registry().All()
			results, err := pgcheck.VerifyAll(ctx, all)
			if err != nil {
				return err
			}
			items := make([]verifyItem, len(results))
			for i, r := range results {
				items[i] = verifyItem{Name: r.PhysicalName, OK: r.Err == nil, Columns: r.Columns}
				if r.Err != nil {
					items[i].Problem = r.Err.Error()
				}
			}

			if recorded {
				drift, err := recordedDrift(ctx, *g, m, all)
				if err != nil {
					return err
				}
				items = mergeDrift(items, drift)
			}

			failed := 0
			for _, it := range items {
				if !it.OK {
					failed++
				}
			}
			out := cmd.OutOrStdout()
			if ok, err := cliutil.PrintStructured(out, cliutil.ParseOutputFormat(g.Format), items); !ok {
				for _, it := range items {
					if it.OK {
						fmt.Fprintf(out, "ok    %s\n", it.Name)
					} else {
						fmt.Fprintf(out, "FAIL  %s: %s\n", it.Name, it.Problem)
					}
				}
			} else if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d constraints failed verification", failed, len(items))
			}
			return nil
		},
	}
	mf.bind(cmd)
	cmd.Flags().BoolVar(&recorded, "recorded", false, "also compare against the bodies applied to the database")
	return cmd
}

// recordedDrift returns a problem description per constraint whose applied
// body differs from the model
func recordedDrift(ctx context.Context, g cliopt.GlobalOptions, m *sqlcheck.Model, all []constraint.Metadata) (map[string]string, error) {
	adapter, err := cliutil.NewAdapter(g)
	if err != nil {
		return nil, err
	}
	s, err := sqlcheck.Open(ctx, adapter, m)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	applied, err := s.Recorded(ctx)
	if err != nil {
		return nil, err
	}
	drift := map[string]string{}
	for _, c := range all {
		body, ok := applied[c.PhysicalName]
		if !ok {
			drift[c.PhysicalName] = "not applied"
			continue
		}
		want, werr := pgcheck.Normalize(c.SQL)
		got, gerr := pgcheck.Normalize(body)
		if werr != nil || gerr != nil {
			if body != c.SQL {
				drift[c.PhysicalName] = fmt.Sprintf("applied body %q differs", body)
			}
			continue
		}
		if want != got {
			drift[c.PhysicalName] = fmt.Sprintf("applied body %q differs", body)
		}
	}
	return drift, nil
}

func mergeDrift(items []verifyItem, drift map[string]string) []verifyItem {
	for i := range items {
		if p, ok := drift[items[i].Name]; ok && items[i].OK {
			items[i].OK = false
			items[i].Problem = p
		}
	}
	return items
}
