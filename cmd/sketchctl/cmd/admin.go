package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sitesketch/internal/store"
	"sitesketch/internal/version"
)

var listLimit int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the sketch schema of the configured store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := store.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer backend.Close()
		if _, ok := backend.(store.Migrator); !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s store has no schema\n", cfg.Store)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s store migrated\n", cfg.Store)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sketches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "sketchctl", version.String())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, listCmd, versionCmd)

	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum number of sketches")
}

func runList(cmd *cobra.Command, args []string) error {
	backend, err := store.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	out := cmd.OutOrStdout()
	switch b := backend.(type) {
	case *store.SQLStore:
		rows, err := b.List(cmd.Context(), listLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tRECORD\tUPDATED")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Title, r.RecordID, r.Updated)
		}
		return w.Flush()
	case *store.FileStore:
		ids, err := b.IDs()
		if err != nil {
			return err
		}
		for i, id := range ids {
			if listLimit > 0 && i >= listLimit {
				break
			}
			fmt.Fprintln(out, id)
		}
		return nil
	default:
		return fmt.Errorf("list is not supported by the %s store", cfg.Store)
	}
}
