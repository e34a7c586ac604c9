package raster

import "fmt"

// Raster is an ordered collection of uniquely named layers sharing one grid
// shape. Layer order is load order and is preserved by every operation that
// consumes or rebuilds a Raster.
type Raster struct {
	layers []*Layer
	byName map[string]int
}

// New builds a Raster from the given layers, in order.
func New(layers ...*Layer) (*Raster, error) {
	r := &Raster{byName: make(map[string]int, len(layers))}
	for _, l := range layers {
		if err := r.Append(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Append adds a layer at the end of the stack. The layer must be non-nil,
// carry a name not already present, and match the grid shape of the layers
// already in the raster.
func (r *Raster) Append(l *Layer) error {
	if l == nil {
		return fmt.Errorf("raster: nil layer")
	}
	if l.Name == "" {
		return fmt.Errorf("raster: layer has no name")
	}
	if _, dup := r.byName[l.Name]; dup {
		return fmt.Errorf("raster: duplicate layer name %q", l.Name)
	}
	if len(r.layers) > 0 {
		first := r.layers[0]
		if l.Rows != first.Rows || l.Cols != first.Cols {
			return fmt.Errorf("raster: layer %q is %dx%d, raster is %dx%d",
				l.Name, l.Rows, l.Cols, first.Rows, first.Cols)
		}
	}
	r.byName[l.Name] = len(r.layers)
	r.layers = append(r.layers, l)
	return nil
}

// Len returns the number of layers.
func (r *Raster) Len() int {
	return len(r.layers)
}

// Layer returns the i'th layer. i must be in [0, Len()).
func (r *Raster) Layer(i int) *Layer {
	return r.layers[i]
}

// LayerByName returns the named layer, if present.
func (r *Raster) LayerByName(name string) (*Layer, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.layers[i], true
}

// Names returns the layer names in stack order.
func (r *Raster) Names() []string {
	names := make([]string, len(r.layers))
	for i, l := range r.layers {
		names[i] = l.Name
	}
	return names
}
