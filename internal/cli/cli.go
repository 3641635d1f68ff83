// Package cli wires pvzloader's cobra command tree over the two core
// packages (internal/pak, internal/injector) and the driver glue
// (internal/config, internal/archivebuild, internal/session,
// internal/lease) that spec §1/§6 treats as an external collaborator.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	version = "v0.0.0"
	commit  = ""
	date    = ""
)

type rootOptions struct {
	configPath string
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pvzloader",
		Short:         "Layer mod assets over a PvZ archive and inject mod libraries into the game",
		SilenceErrors: false,
		SilenceUsage:  true,
		Version:       buildVersion(),
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Override config file path (default: OS user config dir)")

	cmd.AddCommand(
		newInitCmd(opts),
		newProfileCmd(opts),
		newRunCmd(opts),
		newSessionsCmd(opts),
		newMonitorCmd(opts),
		newUpgradeCmd(opts),
	)

	return cmd
}

func buildVersion() string {
	v := version
	if commit != "" {
		v += " (" + commit + ")"
	}
	if date != "" {
		v += " " + date
	}
	return v
}
