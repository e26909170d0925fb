package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sqlcheck/sqlcheck/internal/cliopt"
	"github.com/sqlcheck/sqlcheck/internal/cliutil"
	"github.com/sqlcheck/sqlcheck/internal/logger"
	"github.com/sqlcheck/sqlcheck/sqlcheck"
)

func NewConstraintsCmd(g *cliopt.GlobalOptions) *cobra.Command {
	var mf modelFlags
	cmd := &cobra.Command{
		Use:   "constraints",
		Short: "List the constraints a model declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.load()
			if err != nil {
				return err
			}
			all := m.Registry().All()

			out := cmd.OutOrStdout()
			if ok, err := cliutil.PrintStructured(out, cliutil.ParseOutputFormat(g.Format), all); ok {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tOWNER\tFIELDS\tSQL")
			for _, c := range all {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.PhysicalName, c.Kind, c.OwnerType, strings.Join(c.Fields, ","), c.SQL)
			}
			return tw.Flush()
		},
	}
	mf.bind(cmd)
	return cmd
}

func NewDDLCmd(g *cliopt.GlobalOptions) *cobra.Command {
	var mf modelFlags
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the DDL creating a model's tables for the selected backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.load()
			if err != nil {
				return err
			}
			adapter, err := cliutil.NewAdapter(*g)
			if err != nil {
				return err
			}
			stmts, err := sqlcheck.DDL(adapter, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok, err := cliutil.PrintStructured(out, cliutil.ParseOutputFormat(g.Format), stmts); ok {
				return err
			}
			for _, s := range stmts {
				fmt.Fprintf(out, "%s;\n\n", s)
			}
			return nil
		},
	}
	mf.bind(cmd)
	return cmd
}

func NewApplyCmd(g *cliopt.GlobalOptions) *cobra.Command {
	var mf modelFlags
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create a model's tables, constraints and indexes in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.load()
			if err != nil {
				return err
			}
			adapter, err := cliutil.NewAdapter(*g)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := sqlcheck.Open(ctx, adapter, m)
			if err != nil {
				return err
			}
			defer s.Close()

			created, err := s.Apply(ctx)
			if err != nil {
				return err
			}
			total := m.Registry().Len()
			logger.Get().Info("applied model", "target", adapter.ID(), "entities", len(m.Entities()), "created", len(created), "constraints", total)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d of %d constraints to %s\n", len(created), total, adapter.ID())
			if kept := total - len(created); kept > 0 {
				fmt.Fprintf(out, "%d already existed and were left unchanged; run verify --recorded to compare them with the model\n", kept)
			}
			return nil
		},
	}
	mf.bind(cmd)
	return cmd
}
