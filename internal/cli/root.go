package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sqlcheck/sqlcheck/internal/cli/commands"
	"github.com/sqlcheck/sqlcheck/internal/cliopt"
	"github.com/sqlcheck/sqlcheck/internal/cliutil"
	"github.com/sqlcheck/sqlcheck/internal/logger"
)

// Build-time variables set via ldflags
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewRootCmd assembles the command tree around a fresh set of global options
func NewRootCmd() *cobra.Command {
	g := cliopt.DefaultGlobalOptions()
	root := &cobra.Command{
		Use:   "sqlcheck",
		Short: "Compile entity predicates into SQL CHECK constraints",
		Long: `sqlcheck compiles lambda-style predicates declared on entities into SQL
CHECK constraints and unique indexes, applies them to SQLite or PostgreSQL,
and maps the database's constraint violations back to the declarations.

Commands:
  compile      Compile one predicate to a SQL boolean expression
  fields       List the fields a predicate references
  constraints  List the constraints a model declares
  ddl          Print the DDL for a model
  apply        Create a model's tables in the database
  verify       Check compiled bodies with the PostgreSQL parser
  insert       Insert JSON rows, reporting violations as problem documents
  version      Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cliutil.ApplyEnv(cmd, &g)
			logger.Setup(os.Stderr, g.Debug)
		},
	}
	cliopt.BindGlobalFlags(root, &g)

	root.AddCommand(
		commands.NewCompileCmd(&g),
		commands.NewFieldsCmd(&g),
		commands.NewConstraintsCmd(&g),
		commands.NewDDLCmd(&g),
		commands.NewApplyCmd(&g),
		commands.NewVerifyCmd(&g),
		commands.NewInsertCmd(&g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sqlcheck v%s@%s %s %s\n", Version, GitCommit, platform(), BuildDate)
		},
	}
}

// platform returns the OS/architecture combination
func platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	root := NewRootCmd()
	root.SetArgs(argv)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return commands.ExitCode(err)
	}
	return 0
}
