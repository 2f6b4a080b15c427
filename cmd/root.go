// Package cmd implements the command-line interface for cargoup.
// It provides commands for upgrading Cargo.toml dependency requirements
// to the latest versions published on the registry.
package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajxudir/cargoup/pkg/errors"
	"github.com/ajxudir/cargoup/pkg/verbose"
)

var exitFunc = os.Exit
var errWriter io.Writer = os.Stderr
var verboseFlag bool
var versionFlag bool

var rootCmd = &cobra.Command{
	Use:   "cargoup",
	Short: "Upgrade Cargo.toml dependencies to their latest versions",
	Long:  `Rewrite the version requirements in Cargo.toml files to the latest versions published on the registry, leaving all other manifest content untouched.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			verbose.Enable()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if versionFlag {
			printVersionOutput()
			return
		}
		_ = cmd.Help()
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits with appropriate code:
//   - 0: Success
//   - 2: Complete failure
//   - 3: Configuration or validation error
//
// Errors are printed with their full cause chain so registry and
// filesystem failures keep their context.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printErrorChain(err)
		code := errors.GetExitCode(err)
		verbose.Infof("Exit code %d: %v", code, err)
		exitFunc(code)
	}
}

// ExecuteTest runs the root command for testing (returns error instead of exiting).
//
// Unlike Execute(), this function returns the error directly without calling
// os.Exit, making it suitable for use in test suites.
//
// Returns:
//   - error: Command execution error, or nil on success
func ExecuteTest() error {
	return rootCmd.Execute()
}

// printErrorChain writes the error and each wrapped cause on its own line.
//
// The top-level message already includes the wrapped text, so only the
// distinct causes below it are listed under "Caused by:".
func printErrorChain(err error) {
	fmt.Fprintf(errWriter, "Error: %v\n", err)
	for cause := stderrors.Unwrap(err); cause != nil; cause = stderrors.Unwrap(cause) {
		fmt.Fprintf(errWriter, "Caused by: %v\n", cause)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable verbose debug output")

	// Add -v/--version as a LOCAL flag (not persistent) so it only works on root command
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Show version information")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(upgradeCmd)
}
