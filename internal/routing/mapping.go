package routing

import "reflect"

// LookaheadMode controls how playout looks ahead on a layer.
type LookaheadMode string

// Known lookahead modes. Unknown values pass through untouched.
const (
	LookaheadNone      LookaheadMode = "none"
	LookaheadPreload   LookaheadMode = "preload"
	LookaheadWhenClear LookaheadMode = "when_clear"
)

// Mapping describes the device target behind a logical layer.
//
// The typed fields are the attributes shared by every device integration.
// Options carries device-specific attributes; they are opaque here and only
// ever passed through or overridden key by key.
type Mapping struct {
	Device                     string         `json:"device"`
	DeviceID                   string         `json:"device_id"`
	Lookahead                  LookaheadMode  `json:"lookahead,omitempty"`
	LookaheadDepth             *int           `json:"lookahead_depth,omitempty"`
	LookaheadMaxSearchDistance *int           `json:"lookahead_max_search_distance,omitempty"`
	LayerName                  string         `json:"layer_name,omitempty"`
	Internal                   bool           `json:"internal,omitempty"`
	Options                    map[string]any `json:"options,omitempty"`
}

// Clone returns a copy that shares no pointers or maps with m.
func (m Mapping) Clone() Mapping {
	out := m
	out.LookaheadDepth = cloneInt(m.LookaheadDepth)
	out.LookaheadMaxSearchDistance = cloneInt(m.LookaheadMaxSearchDistance)
	out.Options = cloneOptions(m.Options)
	return out
}

// Equal reports whether both mappings carry the same attributes.
func (m Mapping) Equal(other Mapping) bool {
	if m.Device != other.Device ||
		m.DeviceID != other.DeviceID ||
		m.Lookahead != other.Lookahead ||
		m.LayerName != other.LayerName ||
		m.Internal != other.Internal {
		return false
	}
	if !equalInt(m.LookaheadDepth, other.LookaheadDepth) ||
		!equalInt(m.LookaheadMaxSearchDistance, other.LookaheadMaxSearchDistance) {
		return false
	}
	if len(m.Options) == 0 && len(other.Options) == 0 {
		return true
	}
	return reflect.DeepEqual(m.Options, other.Options)
}

// Remapping is a partial override of a Mapping. Nil fields are absent and
// keep the base value; set fields replace it. Options are merged key by key.
type Remapping struct {
	Device                     *string        `json:"device,omitempty"`
	DeviceID                   *string        `json:"device_id,omitempty"`
	Lookahead                  *LookaheadMode `json:"lookahead,omitempty"`
	LookaheadDepth             *int           `json:"lookahead_depth,omitempty"`
	LookaheadMaxSearchDistance *int           `json:"lookahead_max_search_distance,omitempty"`
	LayerName                  *string        `json:"layer_name,omitempty"`
	Internal                   *bool          `json:"internal,omitempty"`
	Options                    map[string]any `json:"options,omitempty"`
}

// IsZero reports whether the remapping overrides nothing.
func (r *Remapping) IsZero() bool {
	if r == nil {
		return true
	}
	return r.Device == nil &&
		r.DeviceID == nil &&
		r.Lookahead == nil &&
		r.LookaheadDepth == nil &&
		r.LookaheadMaxSearchDistance == nil &&
		r.LayerName == nil &&
		r.Internal == nil &&
		len(r.Options) == 0
}

// Apply returns base with the remapping merged on top. Remapped fields win
// on conflict. base is not modified.
func (r *Remapping) Apply(base Mapping) Mapping {
	out := base.Clone()
	if r == nil {
		return out
	}
	if r.Device != nil {
		out.Device = *r.Device
	}
	if r.DeviceID != nil {
		out.DeviceID = *r.DeviceID
	}
	if r.Lookahead != nil {
		out.Lookahead = *r.Lookahead
	}
	if r.LookaheadDepth != nil {
		out.LookaheadDepth = cloneInt(r.LookaheadDepth)
	}
	if r.LookaheadMaxSearchDistance != nil {
		out.LookaheadMaxSearchDistance = cloneInt(r.LookaheadMaxSearchDistance)
	}
	if r.LayerName != nil {
		out.LayerName = *r.LayerName
	}
	if r.Internal != nil {
		out.Internal = *r.Internal
	}
	if len(r.Options) > 0 {
		if out.Options == nil {
			out.Options = make(map[string]any, len(r.Options))
		}
		for key, value := range r.Options {
			out.Options[key] = cloneValue(value)
		}
	}
	return out
}

// Clone returns a copy of r that shares no pointers or maps with it.
func (r *Remapping) Clone() *Remapping {
	if r == nil {
		return nil
	}
	out := &Remapping{
		Device:                     cloneString(r.Device),
		DeviceID:                   cloneString(r.DeviceID),
		LookaheadDepth:             cloneInt(r.LookaheadDepth),
		LookaheadMaxSearchDistance: cloneInt(r.LookaheadMaxSearchDistance),
		LayerName:                  cloneString(r.LayerName),
	}
	if r.Lookahead != nil {
		mode := *r.Lookahead
		out.Lookahead = &mode
	}
	if r.Internal != nil {
		internal := *r.Internal
		out.Internal = &internal
	}
	out.Options = cloneOptions(r.Options)
	return out
}

// cloneOptions copies an options tree. Nested objects and arrays, as produced
// by JSON and YAML decoding, are copied recursively.
func cloneOptions(options map[string]any) map[string]any {
	if options == nil {
		return nil
	}
	out := make(map[string]any, len(options))
	for key, value := range options {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneOptions(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
