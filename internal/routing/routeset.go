package routing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Behavior describes how operators may interact with a route set. It has no
// effect on resolution.
type Behavior int

const (
	// BehaviorHidden route sets are not shown to operators.
	BehaviorHidden Behavior = iota
	// BehaviorToggle route sets can be switched on and off.
	BehaviorToggle
	// BehaviorActivateOnly route sets can be switched on but never off by hand;
	// they go inactive only when another set in their group is activated.
	BehaviorActivateOnly
)

var behaviorNames = map[Behavior]string{
	BehaviorHidden:       "hidden",
	BehaviorToggle:       "toggle",
	BehaviorActivateOnly: "activate_only",
}

func (b Behavior) String() string {
	if name, ok := behaviorNames[b]; ok {
		return name
	}
	return "behavior(" + strconv.Itoa(int(b)) + ")"
}

// Valid reports whether b is a known behavior.
func (b Behavior) Valid() bool {
	_, ok := behaviorNames[b]
	return ok
}

// ParseBehavior accepts a behavior name or its numeric value.
func ParseBehavior(value string) (Behavior, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	if normalized == "" {
		return BehaviorHidden, nil
	}
	for b, name := range behaviorNames {
		if name == normalized {
			return b, nil
		}
	}
	if n, err := strconv.Atoi(normalized); err == nil && Behavior(n).Valid() {
		return Behavior(n), nil
	}
	return BehaviorHidden, fmt.Errorf("unknown route set behavior %q", value)
}

// MarshalText implements encoding.TextMarshaler.
func (b Behavior) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("unknown route set behavior %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Behavior) UnmarshalText(text []byte) error {
	parsed, err := ParseBehavior(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Route rewrites one source layer to an output layer.
type Route struct {
	MappedLayer       string     `json:"mapped_layer"`
	OutputMappedLayer string     `json:"output_mapped_layer"`
	Remapping         *Remapping `json:"remapping,omitempty"`
}

// Inert reports whether the route lacks a source or output layer. Inert
// routes never contribute to resolution.
func (r Route) Inert() bool {
	return r.MappedLayer == "" || r.OutputMappedLayer == ""
}

// RouteSet is an independently toggleable group of routes.
type RouteSet struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Active           bool     `json:"active"`
	ExclusivityGroup string   `json:"exclusivity_group,omitempty"`
	Behavior         Behavior `json:"behavior"`
	Routes           []Route  `json:"routes"`
}

// Clone returns an independent copy of the route set.
func (s RouteSet) Clone() RouteSet {
	out := s
	if s.Routes != nil {
		out.Routes = make([]Route, len(s.Routes))
		for i, route := range s.Routes {
			out.Routes[i] = Route{
				MappedLayer:       route.MappedLayer,
				OutputMappedLayer: route.OutputMappedLayer,
				Remapping:         route.Remapping.Clone(),
			}
		}
	}
	return out
}

// RouteSets holds a studio's route sets in configuration order. Order decides
// which set wins an exclusivity group.
type RouteSets []RouteSet

// Index returns the position of the set with id, or -1.
func (s RouteSets) Index(id string) int {
	for i := range s {
		if s[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the set with id.
func (s RouteSets) Get(id string) (RouteSet, bool) {
	if idx := s.Index(id); idx >= 0 {
		return s[idx], true
	}
	return RouteSet{}, false
}

// Clone returns an independent copy.
func (s RouteSets) Clone() RouteSets {
	if s == nil {
		return nil
	}
	out := make(RouteSets, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out
}

// Groups returns the distinct exclusivity groups in first-seen order.
func (s RouteSets) Groups() []string {
	var groups []string
	seen := make(map[string]struct{})
	for _, set := range s {
		if set.ExclusivityGroup == "" {
			continue
		}
		if _, ok := seen[set.ExclusivityGroup]; ok {
			continue
		}
		seen[set.ExclusivityGroup] = struct{}{}
		groups = append(groups, set.ExclusivityGroup)
	}
	return groups
}

// Validate reports structural problems that make the sets impossible to
// address: missing or duplicate IDs and unknown behaviors. Inert routes are
// allowed; resolution ignores them and Explain reports them.
func (s RouteSets) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(s))
	for i, set := range s {
		id := strings.TrimSpace(set.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("route set %d: id is required", i))
		} else if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("route set %q: duplicate id", id))
		} else {
			seen[id] = struct{}{}
		}
		if !set.Behavior.Valid() {
			errs = append(errs, fmt.Errorf("route set %q: unknown behavior %d", set.ID, int(set.Behavior)))
		}
	}
	return errors.Join(errs...)
}
