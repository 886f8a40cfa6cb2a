package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"sitesketch/internal/sketch"
)

// DefaultGSTRate is applied when no rate is configured.
const DefaultGSTRate = 0.05

// LineItem is the priced quantity of one shape.
type LineItem struct {
	ShapeID     string  `json:"shapeId" yaml:"shapeId"`
	ServiceID   string  `json:"serviceId,omitempty" yaml:"serviceId,omitempty"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Unit        string  `json:"unit" yaml:"unit"`
	UnitPrice   float64 `json:"unitPrice" yaml:"unitPrice"`
	Amount      float64 `json:"amount" yaml:"amount"`
}

// Estimate is the priced result of a sketch.
type Estimate struct {
	Items    []LineItem `json:"items" yaml:"items"`
	Subtotal float64    `json:"subtotal" yaml:"subtotal"`
	GSTRate  float64    `json:"gstRate" yaml:"gstRate"`
	GST      float64    `json:"gst" yaml:"gst"`
	Total    float64    `json:"total" yaml:"total"`
}

// Bridge computes estimates from shapes. A nil catalog prices shapes by
// their own unit price only.
type Bridge struct {
	catalog *Catalog
	gstRate float64
}

// NewBridge returns a bridge using catalog and the given GST rate. A
// negative or non-finite rate falls back to DefaultGSTRate.
func NewBridge(catalog *Catalog, gstRate float64) *Bridge {
	if gstRate < 0 || math.IsNaN(gstRate) || math.IsInf(gstRate, 0) {
		gstRate = DefaultGSTRate
	}
	return &Bridge{catalog: catalog, gstRate: gstRate}
}

// Catalog returns the bridge's catalog.
func (b *Bridge) Catalog() *Catalog {
	return b.catalog
}

// Quote returns the unit price and description a shape would be priced
// with. The shape's own values win over the catalog defaults.
func (b *Bridge) Quote(s *sketch.Shape) (float64, string, error) {
	price, desc := s.UnitPrice, s.Description
	if s.ServiceID == "" {
		return price, desc, nil
	}
	svc, ok := b.catalog.Lookup(s.ServiceID)
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", ErrUnknownService, s.ServiceID)
	}
	if !svc.Compatible(s) {
		return 0, "", fmt.Errorf("%w: %s on %s", ErrIncompatible, svc.ID, s.Kind)
	}
	if price == 0 {
		price = svc.DefaultPrice
	}
	if desc == "" {
		desc = svc.Description
	}
	return price, desc, nil
}

// Recalculate prices every measurable shape. Depth points, text and markers
// never contribute. Shapes with an unknown or incompatible service are left
// out and reported in the joined error; the estimate covers the rest.
func (b *Bridge) Recalculate(ctx context.Context, shapes []*sketch.Shape) (*Estimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	volumes := sketch.Volumes(shapes)
	est := &Estimate{Items: []LineItem{}, GSTRate: b.gstRate}
	var errs []error

	for _, s := range shapes {
		if s.Kind.Labeled() {
			continue
		}
		price, desc, err := b.Quote(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("shape %s: %w", s.ID, err))
			continue
		}
		if price == 0 && s.ServiceID == "" {
			continue
		}

		item := LineItem{
			ShapeID:     s.ID,
			ServiceID:   s.ServiceID,
			Name:        s.ServiceID,
			Description: desc,
			Quantity:    s.Measurement,
			Unit:        s.MeasurementKind.Unit(),
			UnitPrice:   price,
		}
		if svc, ok := b.catalog.Lookup(s.ServiceID); ok {
			item.Name = svc.Name
			switch svc.Type {
			case sketch.MeasureVolume:
				item.Quantity = volumes[s.ID]
				item.Unit = sketch.MeasureVolume.Unit()
			case sketch.MeasureNone:
				item.Quantity = 1
				item.Unit = "each"
			}
		}
		if item.Name == "" {
			item.Name = string(s.Kind)
		}
		item.Amount = roundCents(item.Quantity * item.UnitPrice)
		est.Items = append(est.Items, item)
		est.Subtotal += item.Amount
	}

	est.Subtotal = roundCents(est.Subtotal)
	est.GST = roundCents(est.Subtotal * b.gstRate)
	est.Total = roundCents(est.Subtotal + est.GST)
	return est, errors.Join(errs...)
}

func roundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
