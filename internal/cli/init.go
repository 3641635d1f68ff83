package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnforge/pvzloader/internal/config"
	"github.com/lawnforge/pvzloader/internal/ids"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a mod profile interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := config.NewStore(root.configPath)
			if err != nil {
				return err
			}

			prof, err := initProfileInteractive(store, bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q (%s)\n", prof.Name, prof.ID)
			return nil
		},
	}
	return cmd
}

func initProfileInteractive(store *config.Store, reader *bufio.Reader, out io.Writer) (config.ModProfile, error) {
	if out != nil {
		_, _ = fmt.Fprintln(out, "pvzloader needs to know where the game lives and which mod assets to layer over its archive.")
	}

	name := promptRequired(reader, out, "Profile name")
	gameExe := promptRequired(reader, out, "Game executable path")
	basePak := prompt(reader, out, "Base archive (blank = main.pak next to the executable)", "")
	archiveOut := prompt(reader, out, "Output archive filename", "res.pak")
	assetDirs := promptList(reader, out, "Mod asset directories (comma-separated, blank = none)")
	libraries := promptList(reader, out, "Native libraries to inject (comma-separated, blank = none)")
	pointer := promptHexUint32(reader, out, "Pak pointer address (hex, e.g. 0x553D7E)", 0)

	id, err := ids.New()
	if err != nil {
		return config.ModProfile{}, err
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
		return config.ModProfile{}, err
	}

	return prof, nil
}

func prompt(r *bufio.Reader, out io.Writer, label, def string) string {
	if def != "" {
		_, _ = fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		_, _ = fmt.Fprintf(out, "%s: ", label)
	}
	s, _ := r.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func promptRequired(r *bufio.Reader, out io.Writer, label string) string {
	for {
		v := prompt(r, out, label, "")
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
}

func promptList(r *bufio.Reader, out io.Writer, label string) []string {
	raw := prompt(r, out, label, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out2 []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out2 = append(out2, part)
		}
	}
	return out2
}

func promptHexUint32(r *bufio.Reader, out io.Writer, label string, def uint32) uint32 {
	for {
		defStr := ""
		if def != 0 {
			defStr = fmt.Sprintf("0x%X", def)
		}
		v := prompt(r, out, label, defStr)
		if v == "" {
			return def
		}
		n, err := parseHexUint32(v)
		if err == nil {
			return n
		}
		_, _ = fmt.Fprintf(os.Stderr, "invalid address %q: %v\n", v, err)
	}
}

func parseHexUint32(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
