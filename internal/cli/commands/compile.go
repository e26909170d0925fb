package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlcheck/sqlcheck/internal/cliopt"
	"github.com/sqlcheck/sqlcheck/internal/cliutil"
	"github.com/sqlcheck/sqlcheck/internal/logger"
)

type compileOutput struct {
	SQL    string   `json:"sql" yaml:"sql"`
	Fields []string `json:"fields" yaml:"fields"`
}

func NewCompileCmd(g *cliopt.GlobalOptions) *cobra.Command {
	var sf shapeFlags
	var key bool
	cmd := &cobra.Command{
		Use:   "compile <predicate>",
		Short: "Compile one predicate to a SQL boolean expression",
		Example: `  sqlcheck compile -f Age:int 'x => x.Age >= 18'
  sqlcheck compile -f Email:string? --key 'x => x.Email.ToLower()'
  sqlcheck compile -m model.yaml -e Person --env min=21 'x => x.Age >= min'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := sf.resolve()
			if err != nil {
				return err
			}
			compile := e.Compile
			if key {
				compile = e.CompileKey
			}
			sql, fields, err := compile(args[0])
			if err != nil {
				return err
			}
			logger.Get().Debug("compiled", "entity", e.Name, "sql", sql, "fields", fields)

			out := cmd.OutOrStdout()
			if ok, err := cliutil.PrintStructured(out, cliutil.ParseOutputFormat(g.Format), compileOutput{SQL: sql, Fields: fields}); ok {
				return err
			}
			fmt.Fprintln(out, sql)
			return nil
		},
	}
	sf.bind(cmd)
	cmd.Flags().BoolVar(&key, "key", false, "compile a unique key expression instead of a predicate")
	return cmd
}

func NewFieldsCmd(g *cliopt.GlobalOptions) *cobra.Command {
	var sf shapeFlags
	cmd := &cobra.Command{
		Use:   "fields <predicate>",
		Short: "List the fields a predicate references, first occurrence first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := sf.resolve()
			if err != nil {
				return err
			}
			fields, err := e.Fields(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok, err := cliutil.PrintStructured(out, cliutil.ParseOutputFormat(g.Format), fields); ok {
				return err
			}
			for _, f := range fields {
				fmt.Fprintln(out, f)
			}
			return nil
		},
	}
	sf.bind(cmd)
	return cmd
}
