// Package pricing prices sketch shapes against a service catalog.
package pricing

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sitesketch/internal/sketch"
)

var (
	// ErrUnknownService is returned when a shape references a service the
	// catalog does not list.
	ErrUnknownService = errors.New("pricing: unknown service")
	// ErrIncompatible is returned when a service is priced by a measurement
	// the shape does not have.
	ErrIncompatible = errors.New("pricing: service does not fit shape")
)

// Service is one catalog entry. Type is the measurement the service is
// priced by; "none" prices a flat amount per shape.
type Service struct {
	ID           string                 `yaml:"id" json:"id"`
	Name         string                 `yaml:"name" json:"name"`
	Type         sketch.MeasurementKind `yaml:"type" json:"type"`
	DefaultPrice float64                `yaml:"defaultPrice" json:"defaultPrice"`
	Description  string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Archived     bool                   `yaml:"archived,omitempty" json:"archived,omitempty"`
}

// Compatible reports whether the service can price shape s. Volume services
// fit area shapes, which carry a volume once depth points are placed in them.
func (svc Service) Compatible(s *sketch.Shape) bool {
	switch svc.Type {
	case sketch.MeasureNone:
		return true
	case sketch.MeasureVolume:
		return s.MeasurementKind == sketch.MeasureArea
	}
	return svc.Type == s.MeasurementKind
}

// Catalog is an immutable set of services.
type Catalog struct {
	services []Service
	byID     map[string]int
}

type catalogFile struct {
	Services []Service `yaml:"services"`
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog. Services with an empty id are
// rejected; an unknown type is treated as "none".
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(f.Services...)
}

// NewCatalog builds a catalog from services.
func NewCatalog(services ...Service) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(services))}
	for _, svc := range services {
		svc.ID = strings.TrimSpace(svc.ID)
		if svc.ID == "" {
			return nil, fmt.Errorf("parse catalog: service %q has no id", svc.Name)
		}
		if _, dup := c.byID[svc.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate service id %q", svc.ID)
		}
		switch svc.Type {
		case sketch.MeasureLength, sketch.MeasureArea, sketch.MeasureVolume:
		default:
			svc.Type = sketch.MeasureNone
		}
		if svc.Name == "" {
			svc.Name = svc.ID
		}
		c.byID[svc.ID] = len(c.services)
		c.services = append(c.services, svc)
	}
	return c, nil
}

// Lookup returns the service with id.
func (c *Catalog) Lookup(id string) (Service, bool) {
	if c == nil {
		return Service{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// Services returns all services in file order, archived ones included.
func (c *Catalog) Services() []Service {
	if c == nil {
		return nil
	}
	return append([]Service(nil), c.services...)
}

// Options returns the active services that can price s, for a picker.
func (c *Catalog) Options(s *sketch.Shape) []Service {
	var out []Service
	for _, svc := range c.Services() {
		if !svc.Archived && svc.Compatible(s) {
			out = append(out, svc)
		}
	}
	return out
}
