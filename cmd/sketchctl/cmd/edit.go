package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sitesketch/internal/editor"
	"sitesketch/internal/geo"
	"sitesketch/internal/history"
	"sitesketch/internal/overlay"
	"sitesketch/internal/persist"
	"sitesketch/internal/prefs"
	"sitesketch/internal/projection"
)

// Canvas used to place overlays and re-project transformed shapes when a
// sketch is edited without a map.
const (
	editCanvasW = 1024
	editCanvasH = 768
	editZoom    = 19
)

var (
	editResize  []string
	editService []string
	editDepth   []string
	editDelete  []string
	editOverlay string
	editCatalog string
)

var editCmd = &cobra.Command{
	Use:   "edit <sketch-id>",
	Short: "Apply edits to a stored sketch and save it",
	Long: `Load a sketch into an editing session, apply the requested edits as
committed changes, and save it back through the persistence bridge. The
estimate is recalculated on save.

Examples:
  sketchctl edit 7f3c... --resize a1b2=120          # line to 120 ft, area to 120 sq ft
  sketchctl edit 7f3c... --service a1b2=fence:42.5  # service with a unit price
  sketchctl edit 7f3c... --depth c3d4=8 --delete e5f6
  sketchctl edit 7f3c... --overlay site-plan.png`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringArrayVar(&editResize, "resize", nil, "shape=value, resize to a measurement")
	editCmd.Flags().StringArrayVar(&editService, "service", nil, "shape=service[:unit-price]")
	editCmd.Flags().StringArrayVar(&editDepth, "depth", nil, "shape=inches, set a depth point")
	editCmd.Flags().StringArrayVar(&editDelete, "delete", nil, "shape id to delete")
	editCmd.Flags().StringVar(&editOverlay, "overlay", "", "image file to place as the overlay")
	editCmd.Flags().StringVar(&editCatalog, "catalog", "", "pricing catalog (default $PRICING_CATALOG)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pricer, err := loadPricer(editCatalog)
	if err != nil {
		return err
	}
	bridge, backend, err := openBridge(ctx, persist.WithPricer(pricer))
	if err != nil {
		return err
	}
	defer backend.Close()

	loaded, err := bridge.Load(ctx, args[0], nil)
	if err != nil {
		return err
	}

	var all []geo.LatLng
	for _, sh := range loaded.Shapes {
		all = append(all, sh.Path...)
	}
	vp := projection.NewViewport(geo.Center(all), editZoom)
	vp.SetSize(editCanvasW, editCanvasH)

	userPrefs := prefs.Load()
	s := editor.New(projection.NewProjector(vp),
		editor.WithLogger(log),
		editor.WithStyle(userPrefs.Style()),
		editor.WithHistory(history.New(history.WithLimit(cfg.HistoryLimit))),
	)
	s.Hydrate(s.BeginLoad(), loaded.Shapes, loaded.Overlay)

	if err := applyEdits(s); err != nil {
		return err
	}

	res, err := bridge.SaveSession(ctx, loaded.Meta, s)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s: %d shapes\n", res.Document.ID, len(res.Document.Shapes))
	if res.Estimate != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "estimate total %.2f\n", res.Estimate.Total)
	}

	userPrefs.SetString(prefs.KeyLastSketchID, res.Document.ID)
	if err := userPrefs.Save(); err != nil {
		log.Warn("preferences not saved", "path", userPrefs.Path(), "err", err)
	}
	return nil
}

func applyEdits(s *editor.Session) error {
	for _, arg := range editResize {
		id, v, err := splitEdit(arg)
		if err != nil {
			return err
		}
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("resize %s: %w", id, err)
		}
		if err := s.ResizeTo(id, value); err != nil {
			return fmt.Errorf("resize %s: %w", id, err)
		}
	}

	for _, arg := range editService {
		id, v, err := splitEdit(arg)
		if err != nil {
			return err
		}
		serviceID, priceText, hasPrice := strings.Cut(v, ":")
		var price float64
		if hasPrice {
			if price, err = strconv.ParseFloat(priceText, 64); err != nil {
				return fmt.Errorf("service %s: %w", id, err)
			}
		}
		sh, ok := s.Store().Get(id)
		if !ok {
			return fmt.Errorf("service %s: %w", id, editor.ErrUnknownShape)
		}
		if err := s.SetBusiness(id, serviceID, price, sh.Description); err != nil {
			return err
		}
	}

	for _, arg := range editDepth {
		id, v, err := splitEdit(arg)
		if err != nil {
			return err
		}
		if err := s.SetDepth(id, v); err != nil {
			return fmt.Errorf("depth %s: %w", id, err)
		}
	}

	if len(editDelete) > 0 {
		s.Select(editDelete...)
		if n := s.Delete(); n != len(editDelete) {
			return fmt.Errorf("delete: %d of %d shapes found", n, len(editDelete))
		}
	}

	if editOverlay != "" {
		data, err := os.ReadFile(editOverlay)
		if err != nil {
			return fmt.Errorf("read overlay: %w", err)
		}
		o, err := overlay.Decode(data)
		if err != nil {
			return err
		}
		s.SetOverlay(o, editCanvasW, editCanvasH)
	}
	return nil
}

func splitEdit(arg string) (string, string, error) {
	id, v, ok := strings.Cut(arg, "=")
	if !ok || id == "" || v == "" {
		return "", "", fmt.Errorf("expected shape=value, got %q", arg)
	}
	return id, v, nil
}
