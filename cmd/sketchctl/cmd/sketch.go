package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sitesketch/internal/export"
	"sitesketch/internal/persist"
	"sitesketch/internal/sketch"
	"sitesketch/internal/store"
)

var (
	outputJSON      bool
	estimateCatalog string
	estimateSave    bool
	exportOutput    string
)

var measureCmd = &cobra.Command{
	Use:   "measure <sketch-id>",
	Short: "List the measurements of a stored sketch",
	Args:  cobra.ExactArgs(1),
	RunE:  runMeasure,
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <sketch-id>",
	Short: "Price a stored sketch against the catalog",
	Long: `Price every measurable shape of a sketch and print line items, subtotal,
GST and total. Shapes with unknown or incompatible services are reported and
left out of the totals.

Examples:
  sketchctl estimate 7f3c...
  sketchctl estimate --catalog prices.yaml --save 7f3c...`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

var exportCmd = &cobra.Command{
	Use:   "export <sketch-id>",
	Short: "Export a stored sketch as a GeoJSON FeatureCollection",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(measureCmd, estimateCmd, exportCmd)

	measureCmd.Flags().BoolVar(&outputJSON, "json", false, "print JSON")
	estimateCmd.Flags().BoolVar(&outputJSON, "json", false, "print JSON")
	estimateCmd.Flags().StringVar(&estimateCatalog, "catalog", "", "pricing catalog (default $PRICING_CATALOG)")
	estimateCmd.Flags().BoolVar(&estimateSave, "save", false, "store the estimate with the sketch")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

// loadSketch hydrates a sketch without a projection, so stored paths are
// used as they are. The caller closes the returned backend.
func loadSketch(cmd *cobra.Command, id string) (*persist.Loaded, store.Backend, error) {
	bridge, backend, err := openBridge(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	loaded, err := bridge.Load(cmd.Context(), id, nil)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	for _, w := range loaded.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	return loaded, backend, nil
}

func runMeasure(cmd *cobra.Command, args []string) error {
	loaded, backend, err := loadSketch(cmd, args[0])
	if err != nil {
		return err
	}
	defer backend.Close()

	rows := export.Measurements(loaded.Shapes)
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKIND\tMEASUREMENT\tVOLUME\tSERVICE")
	for i, r := range rows {
		volume := ""
		if r.Volume > 0 {
			volume = sketch.FormatMeasurement(r.Volume, sketch.MeasureVolume)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, r.Kind, r.Label, volume, r.ServiceID)
	}
	return w.Flush()
}

func runEstimate(cmd *cobra.Command, args []string) error {
	pricer, err := loadPricer(estimateCatalog)
	if err != nil {
		return err
	}
	loaded, backend, err := loadSketch(cmd, args[0])
	if err != nil {
		return err
	}
	defer backend.Close()

	est, perr := pricer.Recalculate(cmd.Context(), loaded.Shapes)
	if est == nil {
		return perr
	}
	if perr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", perr)
	}
	if estimateSave {
		if err := backend.SaveEstimate(cmd.Context(), loaded.Meta.ID, est); err != nil {
			return fmt.Errorf("save estimate: %w", err)
		}
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), est)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tQUANTITY\tUNIT PRICE\tAMOUNT")
	for _, it := range est.Items {
		fmt.Fprintf(w, "%s\t%.1f %s\t%.2f\t%.2f\n", it.Name, it.Quantity, it.Unit, it.UnitPrice, it.Amount)
	}
	fmt.Fprintf(w, "\t\tSubtotal\t%.2f\n", est.Subtotal)
	fmt.Fprintf(w, "\t\tGST (%.0f%%)\t%.2f\n", est.GSTRate*100, est.GST)
	fmt.Fprintf(w, "\t\tTotal\t%.2f\n", est.Total)
	return w.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	loaded, backend, err := loadSketch(cmd, args[0])
	if err != nil {
		return err
	}
	defer backend.Close()

	fc := export.GeoJSON(loaded.Meta, loaded.Shapes)
	if exportOutput == "" {
		return writeJSON(cmd.OutOrStdout(), fc)
	}
	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOutput, err)
	}
	if err := writeJSON(f, fc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
