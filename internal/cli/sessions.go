package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnforge/pvzloader/internal/config"
	"github.com/lawnforge/pvzloader/internal/proc"
	"github.com/lawnforge/pvzloader/internal/session"
)

func newSessionsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded pvzloader launches",
	}
	cmd.AddCommand(newSessionsListCmd(root), newSessionsRemoveCmd(root))
	return cmd
}

func newSessionsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded launches, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := config.NewStore(root.configPath)
			if err != nil {
				return err
			}
			recs, err := session.List(store)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No recorded sessions.")
				return nil
			}
			for _, r := range recs {
				status := "dead"
				if proc.IsAlive(r.Pid) {
					status = "alive"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tpid=%d\t%s\t%s\t%s\n", r.ID, r.Pid, status, r.ArchivePath, r.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newSessionsRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <session-id>",
		Short: "Remove a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.NewStore(root.configPath)
			if err != nil {
				return err
			}
			if err := session.Remove(store, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", args[0])
			return nil
		},
	}
}
