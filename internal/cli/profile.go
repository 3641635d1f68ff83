package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnforge/pvzloader/internal/config"
	"github.com/lawnforge/pvzloader/internal/ids"
)

func newProfileCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage mod profiles",
	}
	cmd.AddCommand(
		newProfileAddCmd(root),
		newProfileListCmd(root),
		newProfileRemoveCmd(root),
	)
	return cmd
}

func newProfileAddCmd(root *rootOptions) *cobra.Command {
	var (
		name       string
		gameExe    string
		basePak    string
		archiveOut string
		assetDirs  []string
		libraries  []string
		pointerHex string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a mod profile non-interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(gameExe) == "" {
				return fmt.Errorf("--name and --game-exe are required")
			}

			var pointer uint32
			if strings.TrimSpace(pointerHex) != "" {
				n, err := parseHexUint32(pointerHex)
				if err != nil {
					return fmt.Errorf("invalid --pak-pointer-address %q: %w", pointerHex, err)
				}
				pointer = n
			}

			store, err := config.NewStore(root.configPath)
			if err != nil {
				return err
			}

			id, err := ids.New()
			if err != nil {
				return err
			}
			if archiveOut == "" {
				archiveOut = "res.pak"
			}

			prof := config.ModProfile{
				ID:                id,
				Name:              name,
				GameExe:           gameExe,
				BasePak:           basePak,
				ArchiveOut:        archiveOut,
				AssetDirs:         assetDirs,
				Libraries:         libraries,
				PakPointerAddress: pointer,
				CreatedAt:         time.Now(),
			}

			if err := store.Update(func(cfg *config.Config) error {
				cfg.UpsertProfile(prof)
				return nil
			}); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q (%s)\n", prof.Name, prof.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&gameExe, "game-exe", "", "Path to the game executable (required)")
	cmd.Flags().StringVar(&basePak, "base-pak", "", "Base archive path (default: main.pak next to game-exe)")
	cmd.Flags().StringVar(&archiveOut, "archive-out", "res.pak", "Output archive filename")
	cmd.Flags().StringSliceVar(&assetDirs, "asset-dir", nil, "Mod asset directory (repeatable)")
	cmd.Flags().StringSliceVar(&libraries, "library", nil, "Native library to inject (repeatable)")
	cmd.Flags().StringVar(&pointerHex, "pak-pointer-address", "", "Fixed patch address in hex, e.g. 0x553D7E")
	return cmd
}

func newProfileListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mod profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := config.NewStore(root.configPath)
			if err != nil {
				return err
			}
			cfg, err := store.Load()
			if err != nil {
				return err
			}
			if len(cfg.Profiles) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles. Run `pvzloader init` or `pvzloader profile add`.")
				return nil
			}
			for _, p := range cfg.Profiles {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s -> %s\n", p.ID, p.Name, p.GameExe, p.ArchiveOut)
			}
			return nil
		},
	}
}

func newProfileRemoveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id-or-name>",
		Short: "Remove a mod profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.NewStore(root.configPath)
			if err != nil {
				return err
			}

			var removed bool
			err = store.Update(func(cfg *config.Config) error {
				p, ok := cfg.FindProfile(args[0])
				if !ok {
					return fmt.Errorf("profile %q not found", args[0])
				}
				removed = cfg.RemoveProfile(p.ID)
				return nil
			})
			if err != nil {
				return err
			}
			if removed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %q\n", args[0])
			}
			return nil
		},
	}
}
