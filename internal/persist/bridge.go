package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"sitesketch/internal/editor"
	"sitesketch/internal/logger"
	"sitesketch/internal/metrics"
	"sitesketch/internal/overlay"
	"sitesketch/internal/pricing"
	"sitesketch/internal/sketch"
)

// ErrNotFound is returned by stores when no sketch has the requested id.
var ErrNotFound = errors.New("persist: sketch not found")

// DocumentStore keeps sketch documents.
type DocumentStore interface {
	SaveSketch(ctx context.Context, doc *Document) error
	LoadSketch(ctx context.Context, id string) (*Document, error)
	// SaveEstimate attaches a pricing result to an already saved sketch.
	SaveEstimate(ctx context.Context, id string, est *pricing.Estimate) error
}

// AssetStore keeps overlay images.
type AssetStore interface {
	// UploadAsset stores data under key and returns its URL.
	UploadAsset(ctx context.Context, key string, data []byte, contentType string) (string, error)
	FetchAsset(ctx context.Context, url string) ([]byte, error)
}

// Pricer recalculates line items for a shape list. It may return a partial
// estimate together with an error.
type Pricer interface {
	Recalculate(ctx context.Context, shapes []*sketch.Shape) (*pricing.Estimate, error)
}

// Bridge runs the save and load sequences against external stores.
type Bridge struct {
	docs   DocumentStore
	assets AssetStore
	pricer Pricer
	log    *slog.Logger
	now    func() time.Time
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithAssets sets the store used for overlay images.
func WithAssets(a AssetStore) BridgeOption {
	return func(b *Bridge) { b.assets = a }
}

// WithPricer sets the pricing step run after each save.
func WithPricer(p Pricer) BridgeOption {
	return func(b *Bridge) { b.pricer = p }
}

// WithLogger sets the bridge logger.
func WithLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.log = l }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) BridgeOption {
	return func(b *Bridge) { b.now = now }
}

// NewBridge returns a bridge writing documents to docs.
func NewBridge(docs DocumentStore, opts ...BridgeOption) *Bridge {
	b := &Bridge{docs: docs, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.L()
	}
	return b
}

// SaveResult reports a completed geometry save. Warnings list secondary
// steps that failed; the geometry is stored regardless.
type SaveResult struct {
	Document   *Document
	OverlayURL string
	Estimate   *pricing.Estimate
	Warnings   []string
}

// OK reports whether every step succeeded.
func (r *SaveResult) OK() bool {
	return len(r.Warnings) == 0
}

func (r *SaveResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Save writes a snapshot. A fresh overlay image is uploaded first; if that
// fails the document is written without the overlay. After the write the
// pricer runs and its estimate is attached to the stored record. Only a
// failed document write returns an error.
func (b *Bridge) Save(ctx context.Context, meta Meta, snap editor.Snapshot) (*SaveResult, error) {
	start := time.Now()
	metrics.SavesTotal.Inc()
	defer func() {
		metrics.SaveDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	now := b.now().UTC()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Created.IsZero() {
		meta.Created = now
	}
	meta.Updated = now

	doc := Encode(meta, snap.Shapes, snap.Overlay)
	res := &SaveResult{Document: doc}
	log := b.log.With("sketch_id", meta.ID)

	if doc.Overlay.Pending() {
		url, err := b.uploadOverlay(ctx, meta.ID, doc.Overlay)
		if err != nil {
			log.Warn("overlay upload failed", "err", err)
			res.warn("overlay image was not stored: %v", err)
			doc.Overlay = nil
		} else {
			doc.Overlay.URL = url
			doc.Overlay.pending = nil
			res.OverlayURL = url
		}
	}

	if err := b.docs.SaveSketch(ctx, doc); err != nil {
		metrics.SaveFailuresTotal.Inc()
		log.Error("sketch save failed", "err", err)
		return nil, fmt.Errorf("save sketch %s: %w", meta.ID, err)
	}
	log.Info("sketch saved", "shapes", len(doc.Shapes), "overlay", doc.Overlay != nil)

	if b.pricer != nil {
		// Price what was stored: the encoded document is already sanitized.
		stored, _, _ := Decode(doc, nil)
		b.price(ctx, log, res, stored)
	}
	return res, nil
}

func (b *Bridge) uploadOverlay(ctx context.Context, id string, rec *OverlayRecord) (string, error) {
	if b.assets == nil {
		metrics.AssetUploadsTotal.WithLabelValues("skipped").Inc()
		return "", errors.New("no asset store configured")
	}
	ext := rec.Format
	if ext == "" {
		ext = "bin"
	}
	key := path.Join("sketches", id, "overlay-"+uuid.NewString()+"."+ext)
	url, err := b.assets.UploadAsset(ctx, key, rec.pending, rec.contentType)
	if err != nil {
		metrics.AssetUploadsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.AssetUploadsTotal.WithLabelValues("ok").Inc()
	return url, nil
}

func (b *Bridge) price(ctx context.Context, log *slog.Logger, res *SaveResult, shapes []*sketch.Shape) {
	est, err := b.pricer.Recalculate(ctx, shapes)
	if err != nil {
		metrics.PricingFailuresTotal.Inc()
		log.Warn("pricing recalculation failed", "err", err)
		res.warn("pricing was not fully updated: %v", err)
	}
	if est == nil {
		return
	}
	if err := b.docs.SaveEstimate(ctx, res.Document.ID, est); err != nil {
		metrics.PricingFailuresTotal.Inc()
		log.Warn("estimate save failed", "err", err)
		res.warn("pricing was not stored: %v", err)
		return
	}
	res.Estimate = est
	res.Document.Estimate = est
}

// SaveSession saves the session's current state and records the uploaded
// overlay URL on the session so later saves do not upload it again.
func (b *Bridge) SaveSession(ctx context.Context, meta Meta, s *editor.Session) (*SaveResult, error) {
	res, err := b.Save(ctx, meta, s.Snapshot())
	if err != nil {
		return nil, err
	}
	if res.OverlayURL != "" {
		s.MarkOverlayStored(res.OverlayURL)
	}
	return res, nil
}

// Loaded is a hydrated document.
type Loaded struct {
	Meta     Meta
	Shapes   []*sketch.Shape
	Overlay  *overlay.Overlay
	Estimate *pricing.Estimate
	Dropped  int
	Warnings []string
}

// Load reads and hydrates a sketch. The overlay image is fetched from its
// stored URL; a failed fetch keeps the overlay with its URL only.
func (b *Bridge) Load(ctx context.Context, id string, proj sketch.PathProjector) (*Loaded, error) {
	doc, err := b.docs.LoadSketch(ctx, id)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrNotFound) {
			result = "not_found"
		}
		metrics.LoadsTotal.WithLabelValues(result).Inc()
		return nil, fmt.Errorf("load sketch %s: %w", id, err)
	}
	metrics.LoadsTotal.WithLabelValues("ok").Inc()

	log := b.log.With("sketch_id", id)
	shapes, ov, dropped := Decode(doc, proj)
	out := &Loaded{Meta: doc.Meta, Shapes: shapes, Overlay: ov, Estimate: doc.Estimate, Dropped: dropped}
	if dropped > 0 {
		log.Warn("dropped invalid shapes", "count", dropped)
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d invalid shapes were dropped", dropped))
	}

	if ov != nil && b.assets != nil {
		data, err := b.assets.FetchAsset(ctx, ov.Source)
		if err != nil {
			log.Warn("overlay fetch failed", "url", ov.Source, "err", err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("overlay image could not be fetched: %v", err))
		} else {
			ov.Data = data
		}
	}
	return out, nil
}

// LoadSession loads a sketch into s. A load superseded by a later one is
// discarded and reported as not applied.
func (b *Bridge) LoadSession(ctx context.Context, id string, s *editor.Session, proj sketch.PathProjector) (*Loaded, bool, error) {
	token := s.BeginLoad()
	loaded, err := b.Load(ctx, id, proj)
	if err != nil {
		return nil, false, err
	}
	return loaded, s.Hydrate(token, loaded.Shapes, loaded.Overlay), nil
}
