package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajxudir/cargoup/pkg/config"
	"github.com/ajxudir/cargoup/pkg/errors"
	"github.com/ajxudir/cargoup/pkg/output"
	"github.com/ajxudir/cargoup/pkg/registry"
	"github.com/ajxudir/cargoup/pkg/upgrade"
	"github.com/ajxudir/cargoup/pkg/verbose"
)

// CLI flags
var (
	upgradeAllFlag        bool
	upgradeDependencyFlag []string
	upgradeManifestFlag   string
	upgradePrereleaseFlag bool
	upgradeDryRunFlag     bool
	upgradeRegistryFlag   string
	upgradeConfigFlag     string
)

// Testable function variables
var upgradeRunFunc = upgrade.Run
var loadConfigFunc = config.LoadConfig
var writeSummaryFunc = output.WriteUpgradeSummary
var getwdFunc = os.Getwd

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade dependency requirements to the latest versions",
	Long:  `Rewrite version requirements in Cargo.toml to the latest versions on the registry. Dependencies sourced from git or a local path are left alone.`,
	RunE:  runUpgrade,
}

func init() {
	upgradeCmd.Flags().BoolVar(&upgradeAllFlag, "all", false, "Upgrade every package in the workspace")
	upgradeCmd.Flags().StringSliceVarP(&upgradeDependencyFlag, "dependency", "d", nil, "Upgrade only the named crates (repeatable)")
	upgradeCmd.Flags().StringVar(&upgradeManifestFlag, "manifest-path", "", "Path to Cargo.toml or its directory")
	upgradeCmd.Flags().BoolVar(&upgradePrereleaseFlag, "allow-prerelease", false, "Allow pre-release versions as upgrade targets")
	upgradeCmd.Flags().BoolVar(&upgradeDryRunFlag, "dry-run", false, "Report upgrades without writing files")
	upgradeCmd.Flags().StringVar(&upgradeRegistryFlag, "registry", "", "Registry API base URL")
	upgradeCmd.Flags().StringVarP(&upgradeConfigFlag, "config", "c", "", "Config file path")
}

// runUpgrade executes the upgrade command.
//
// It performs the following operations:
//   - Step 1: Loads configuration and merges it with command-line flags
//   - Step 2: Runs the upgrade engine against one manifest or the whole
//     workspace
//   - Step 3: Writes a summary table of the applied upgrades
//
// Parameters:
//   - cmd: Cobra command instance
//   - args: Unused positional arguments
//
// Returns:
//   - error: Returns ExitError with appropriate code on failure
func runUpgrade(cmd *cobra.Command, args []string) error {
	workDir, err := getwdFunc()
	if err != nil {
		workDir = "."
	}

	cfg, err := loadConfigFunc(upgradeConfigFlag, workDir)
	if err != nil {
		return errors.NewExitError(errors.ExitConfigError, err)
	}

	registryURL := cfg.Registry
	if upgradeRegistryFlag != "" {
		registryURL = upgradeRegistryFlag
	}
	verbose.Infof("Using registry: %s", registryURL)

	opts := upgrade.Options{
		ManifestPath: upgradeManifestFlag,
		All:          upgradeAllFlag,
		Selector: upgrade.Selector{
			Only:   upgradeDependencyFlag,
			Ignore: cfg.Ignore,
		},
		AllowPrerelease: upgradePrereleaseFlag || cfg.AllowPrerelease,
		DryRun:          upgradeDryRunFlag,
		Registry:        registry.NewClient(registryURL),
	}

	changes, err := upgradeRunFunc(opts)
	if err != nil {
		return errors.NewExitError(errors.ExitFailure, err)
	}

	out := cmd.OutOrStdout()
	if upgradeDryRunFlag && len(changes) > 0 {
		fmt.Fprintln(out, "Dry run: no files were written")
	}
	return writeSummaryFunc(out, changes)
}
