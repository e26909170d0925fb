package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlcheck/sqlcheck/internal/cliopt"
	"github.com/sqlcheck/sqlcheck/internal/cliutil"
	"github.com/sqlcheck/sqlcheck/internal/logger"
	"github.com/sqlcheck/sqlcheck/sqlcheck"
	"github.com/sqlcheck/sqlcheck/sqlcheck/violation"
)

func NewInsertCmd(g *cliopt.GlobalOptions) *cobra.Command {
	var mf modelFlags
	var entity, importPath string
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert JSON rows, reporting violations as problem documents",
		Long: `insert reads one JSON object per line from stdin (or --import) and inserts
each as a row of --entity. A row rejected by a declared constraint is reported
on stdout as a validation problem document and the remaining rows are still
inserted. The command exits with status 3 when any row was rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.load()
			if err != nil {
				return err
			}
			e, ok := m.Lookup(entity)
			if !ok {
				return sqlcheck.UnknownEntityError(entity)
			}
			adapter, err := cliutil.NewAdapter(*g)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if importPath != "" {
				f, err := os.Open(importPath)
				if err != nil {
					return sqlcheck.Wrap(sqlcheck.ErrIO, "open import file", err)
				}
				defer f.Close()
				r = f
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

			return insertLines(ctx, s, e, r, cmd.OutOrStdout())
		},
	}
	mf.bind(cmd)
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "entity to insert into (required)")
	cmd.Flags().StringVar(&importPath, "import", "", "read JSON lines from this file instead of stdin")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func insertLines(ctx context.Context, s *sqlcheck.Store, e *sqlcheck.Entity, r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line, inserted, rejected := 0, 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		row, err := e.DecodeRow([]byte(text))
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		err = s.Insert(ctx, e.Name, row)
		if body, ok, merr := violation.MarshalProblem(err); ok {
			if merr != nil {
				return merr
			}
			logger.Get().Debug("row rejected", "line", line, "error", err)
			fmt.Fprintln(out, string(body))
			rejected++
			continue
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		inserted++
	}
	if err := sc.Err(); err != nil {
		return sqlcheck.Wrap(sqlcheck.ErrIO, "read rows", err)
	}
	logger.Get().Info("insert finished", "entity", e.Name, "inserted", inserted, "rejected", rejected)
	if rejected > 0 {
		return fmt.Errorf("%w: %d of %d rows rejected", errViolations, rejected, inserted+rejected)
	}
	return nil
}
