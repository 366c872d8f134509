// Package layers publishes per-cell simulation values for external consumers.
// A layer is a named map from zone id to a W*H grid of optional values.
package layers

import (
	"sort"

	"github.com/pthm-cable/thermoscape/components"
)

// Source reports the value living at a grid cell, if any.
type Source[T any] interface {
	At(p components.Point) (*T, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(p components.Point) (*T, bool)

// At calls f(p).
func (f SourceFunc[T]) At(p components.Point) (*T, bool) {
	return f(p)
}

// Layer maps a zone id to a row-major W*H grid. Nil cells have no value.
type Layer[T any] map[int][]*T

// At returns the value at p in the given zone.
func (l Layer[T]) At(zone int, w int, p components.Point) (*T, bool) {
	cells, ok := l[zone]
	if !ok || p.X < 0 || p.X >= w || p.Y < 0 {
		return nil, false
	}
	i := p.Y*w + p.X
	if i >= len(cells) || cells[i] == nil {
		return nil, false
	}
	return cells[i], true
}

// Zones returns the layer's zone ids in ascending order.
func (l Layer[T]) Zones() []int {
	ids := make([]int, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Store holds layers of any element type for one generated grid. It is
// discarded with the grid on regeneration.
type Store struct {
	W, H int

	layers map[string]any
	order  []string
}

// NewStore creates an empty store for a w*h grid.
func NewStore(w, h int) *Store {
	return &Store{
		W:      w,
		H:      h,
		layers: make(map[string]any),
	}
}

// Names returns layer names in creation order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Has reports whether a layer exists under name, whatever its type.
func (s *Store) Has(name string) bool {
	_, ok := s.layers[name]
	return ok
}

// Create builds a layer named name unless one already exists, and reports
// whether it did. zones lists the points of each zone by id; with nil zones
// the whole grid is a single zone 0. A cell is filled only where source has
// a value.
func Create[T any](s *Store, name string, zones [][]components.Point, source Source[T]) bool {
	if _, ok := s.layers[name]; ok {
		return false
	}

	layer := make(Layer[T])
	if zones == nil {
		cells := make([]*T, s.W*s.H)
		for y := 0; y < s.H; y++ {
			for x := 0; x < s.W; x++ {
				if v, ok := source.At(components.Pt(x, y)); ok {
					cells[y*s.W+x] = v
				}
			}
		}
		layer[0] = cells
	} else {
		for id, points := range zones {
			cells := make([]*T, s.W*s.H)
			for _, p := range points {
				if !p.In(s.W, s.H) {
					continue
				}
				if v, ok := source.At(p); ok {
					cells[p.Y*s.W+p.X] = v
				}
			}
			layer[id] = cells
		}
	}

	s.layers[name] = layer
	s.order = append(s.order, name)
	return true
}

// Get returns every zone of the named layer. It misses when the layer does
// not exist or holds a different element type.
func Get[T any](s *Store, name string) (Layer[T], bool) {
	raw, ok := s.layers[name]
	if !ok {
		return nil, false
	}
	layer, ok := raw.(Layer[T])
	return layer, ok
}

// GetZone returns one zone's grid of the named layer.
func GetZone[T any](s *Store, name string, zone int) ([]*T, bool) {
	layer, ok := Get[T](s, name)
	if !ok {
		return nil, false
	}
	cells, ok := layer[zone]
	return cells, ok
}
