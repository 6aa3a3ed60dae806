package routing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// LayerMapping pairs a layer name with its mapping. It is the list form of
// Mappings used in definition files and storage, where order must be explicit.
type LayerMapping struct {
	Layer string `json:"layer"`
	Mapping
}

// Mappings is an ordered table from layer name to Mapping. Iteration follows
// insertion order; replacing an existing layer keeps its position.
//
// The zero value is an empty table ready for use. A nil *Mappings reads as
// empty.
type Mappings struct {
	layers  []string
	entries map[string]Mapping
}

// NewMappings returns an empty table.
func NewMappings() *Mappings {
	return &Mappings{entries: make(map[string]Mapping)}
}

// MappingsFromList builds a table from list form. Later duplicates replace
// earlier ones in place.
func MappingsFromList(list []LayerMapping) *Mappings {
	m := NewMappings()
	for _, entry := range list {
		m.Set(entry.Layer, entry.Mapping)
	}
	return m
}

// Len returns the number of layers.
func (m *Mappings) Len() int {
	if m == nil {
		return 0
	}
	return len(m.layers)
}

// Get returns the mapping for layer.
func (m *Mappings) Get(layer string) (Mapping, bool) {
	if m == nil {
		return Mapping{}, false
	}
	mapping, ok := m.entries[layer]
	return mapping, ok
}

// Set stores mapping under layer.
func (m *Mappings) Set(layer string, mapping Mapping) {
	if m.entries == nil {
		m.entries = make(map[string]Mapping)
	}
	if _, exists := m.entries[layer]; !exists {
		m.layers = append(m.layers, layer)
	}
	m.entries[layer] = mapping
}

// Delete removes layer and reports whether it was present.
func (m *Mappings) Delete(layer string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.entries[layer]; !ok {
		return false
	}
	delete(m.entries, layer)
	if idx := slices.Index(m.layers, layer); idx >= 0 {
		m.layers = slices.Delete(m.layers, idx, idx+1)
	}
	return true
}

// Layers returns the layer names in table order.
func (m *Mappings) Layers() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.layers)
}

// Each calls fn for every layer in order until fn returns false.
func (m *Mappings) Each(fn func(layer string, mapping Mapping) bool) {
	if m == nil {
		return
	}
	for _, layer := range m.layers {
		if !fn(layer, m.entries[layer]) {
			return
		}
	}
}

// List returns the table in list form.
func (m *Mappings) List() []LayerMapping {
	out := make([]LayerMapping, 0, m.Len())
	m.Each(func(layer string, mapping Mapping) bool {
		out = append(out, LayerMapping{Layer: layer, Mapping: mapping.Clone()})
		return true
	})
	return out
}

// Clone returns an independent copy of the table.
func (m *Mappings) Clone() *Mappings {
	out := NewMappings()
	m.Each(func(layer string, mapping Mapping) bool {
		out.Set(layer, mapping.Clone())
		return true
	})
	return out
}

// Equal reports whether both tables hold the same layers with equal
// mappings. Order is not compared.
func (m *Mappings) Equal(other *Mappings) bool {
	if m.Len() != other.Len() {
		return false
	}
	equal := true
	m.Each(func(layer string, mapping Mapping) bool {
		theirs, ok := other.Get(layer)
		if !ok || !mapping.Equal(theirs) {
			equal = false
		}
		return equal
	})
	return equal
}

// MarshalJSON encodes the table as a JSON object in table order.
func (m *Mappings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var encodeErr error
	first := true
	m.Each(func(layer string, mapping Mapping) bool {
		key, err := json.Marshal(layer)
		if err != nil {
			encodeErr = err
			return false
		}
		value, err := json.Marshal(mapping)
		if err != nil {
			encodeErr = fmt.Errorf("layer %q: %w", layer, err)
			return false
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		return true
	})
	if encodeErr != nil {
		return nil, encodeErr
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (m *Mappings) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = Mappings{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("mappings: expected object, got %v", tok)
	}
	table := NewMappings()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		layer, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("mappings: expected layer name, got %v", keyTok)
		}
		var mapping Mapping
		if err := dec.Decode(&mapping); err != nil {
			return fmt.Errorf("mappings: layer %q: %w", layer, err)
		}
		table.Set(layer, mapping)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = *table
	return nil
}
