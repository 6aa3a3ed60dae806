package routing

// Suppression records a route set skipped because another set already
// claimed its exclusivity group.
type Suppression struct {
	RouteSetID string `json:"route_set_id"`
	Group      string `json:"group"`
	WinnerID   string `json:"winner_id"`
}

// InertRoute identifies a route that was ignored for lacking a layer name.
type InertRoute struct {
	RouteSetID string `json:"route_set_id"`
	Index      int    `json:"index"`
}

// Collision records an output layer written more than once. Sources lists
// every source layer that wrote it, in write order; the last one won.
type Collision struct {
	OutputLayer string   `json:"output_layer"`
	Sources     []string `json:"sources"`
}

// Resolution is the result of Explain: the effective table plus a trace of
// the decisions that produced it.
type Resolution struct {
	Mappings   *Mappings     `json:"mappings"`
	Routes     ActiveRoutes  `json:"routes"`
	Applied    []string      `json:"applied"`
	Inactive   []string      `json:"inactive,omitempty"`
	Suppressed []Suppression `json:"suppressed,omitempty"`
	Inert      []InertRoute  `json:"inert,omitempty"`
	Collisions []Collision   `json:"collisions,omitempty"`
}

// Explain resolves like Resolve and reports which route sets applied, which
// were suppressed, which routes were inert, and which output layers were
// overwritten. The Mappings it returns are identical to Resolve's.
func Explain(sets RouteSets, base *Mappings) Resolution {
	res := Resolution{}
	res.Routes = selectRoutes(sets, &res)
	res.Mappings = rewrite(base, res.Routes, &res)
	return res
}

func (r *Resolution) applied(id string) {
	if r == nil {
		return
	}
	r.Applied = append(r.Applied, id)
}

func (r *Resolution) inactive(id string) {
	if r == nil {
		return
	}
	r.Inactive = append(r.Inactive, id)
}

func (r *Resolution) suppressed(id, group, winner string) {
	if r == nil {
		return
	}
	r.Suppressed = append(r.Suppressed, Suppression{RouteSetID: id, Group: group, WinnerID: winner})
}

func (r *Resolution) inert(id string, index int) {
	if r == nil {
		return
	}
	r.Inert = append(r.Inert, InertRoute{RouteSetID: id, Index: index})
}

func (r *Resolution) collision(output, prev, source string) {
	if r == nil {
		return
	}
	for i := range r.Collisions {
		if r.Collisions[i].OutputLayer == output {
			r.Collisions[i].Sources = append(r.Collisions[i].Sources, source)
			return
		}
	}
	r.Collisions = append(r.Collisions, Collision{OutputLayer: output, Sources: []string{prev, source}})
}
