package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Mapping describes one layer of a mapping table.
type Mapping struct {
	Layer                      string         `json:"layer"`
	Device                     string         `json:"device"`
	DeviceID                   string         `json:"deviceId"`
	Lookahead                  string         `json:"lookahead,omitempty"`
	LookaheadDepth             *int           `json:"lookaheadDepth,omitempty"`
	LookaheadMaxSearchDistance *int           `json:"lookaheadMaxSearchDistance,omitempty"`
	LayerName                  string         `json:"layerName,omitempty"`
	Internal                   bool           `json:"internal,omitempty"`
	Options                    map[string]any `json:"options,omitempty"`
}

// Remapping lists the attributes a route overrides. Absent fields are kept
// from the source layer.
type Remapping struct {
	Device                     *string        `json:"device,omitempty"`
	DeviceID                   *string        `json:"deviceId,omitempty"`
	Lookahead                  *string        `json:"lookahead,omitempty"`
	LookaheadDepth             *int           `json:"lookaheadDepth,omitempty"`
	LookaheadMaxSearchDistance *int           `json:"lookaheadMaxSearchDistance,omitempty"`
	LayerName                  *string        `json:"layerName,omitempty"`
	Internal                   *bool          `json:"internal,omitempty"`
	Options                    map[string]any `json:"options,omitempty"`
}

// Route is one configured route inside a route set.
type Route struct {
	MappedLayer       string     `json:"mappedLayer"`
	OutputMappedLayer string     `json:"outputMappedLayer"`
	Remapping         *Remapping `json:"remapping,omitempty"`
	Inert             bool       `json:"inert,omitempty"`
}

// RouteSet describes a route set and its routes.
type RouteSet struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Active           bool    `json:"active"`
	ExclusivityGroup string  `json:"exclusivityGroup,omitempty"`
	Behavior         string  `json:"behavior"`
	Routes           []Route `json:"routes"`
}

// ExclusivityGroup names a group of mutually exclusive route sets.
type ExclusivityGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StudioSettings mirrors studio.Settings.
type StudioSettings struct {
	MediaPreviewsURL       string `json:"mediaPreviewsUrl,omitempty"`
	CoreURL                string `json:"coreUrl,omitempty"`
	SlackEvaluationURLs    string `json:"slackEvaluationUrls,omitempty"`
	SupportedMediaFormats  string `json:"supportedMediaFormats,omitempty"`
	SupportedAudioStreams  string `json:"supportedAudioStreams,omitempty"`
	EnablePlayFromAnywhere bool   `json:"enablePlayFromAnywhere"`
	ForceSettingNowTime    bool   `json:"forceSettingNowTime"`
	NowSafeLatencyMS       int    `json:"nowSafeLatencyMs"`
}

// StudioSummary is the list view of a studio.
type StudioSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	BlueprintID     string   `json:"blueprintId,omitempty"`
	MappingCount    int      `json:"mappingCount"`
	RouteSetCount   int      `json:"routeSetCount"`
	ActiveRouteSets []string `json:"activeRouteSets"`
	MappingsHash    string   `json:"mappingsHash"`
	UpdatedAt       string   `json:"updatedAt,omitempty"`
}

// Studio is the detail view of a studio.
type Studio struct {
	StudioSummary
	OrganizationID     string             `json:"organizationId,omitempty"`
	Settings           StudioSettings     `json:"settings"`
	BlueprintConfig    map[string]any     `json:"blueprintConfig,omitempty"`
	RundownVersionHash string             `json:"rundownVersionHash"`
	CreatedAt          string             `json:"createdAt,omitempty"`
	Mappings           []Mapping          `json:"mappings"`
	RouteSets          []RouteSet         `json:"routeSets"`
	ExclusivityGroups  []ExclusivityGroup `json:"exclusivityGroups"`
}

// ActiveRoute is one applied route, flattened from the source-keyed table.
type ActiveRoute struct {
	SourceLayer string     `json:"sourceLayer"`
	OutputLayer string     `json:"outputLayer"`
	Remapping   *Remapping `json:"remapping,omitempty"`
}

// Suppression reports a route set skipped because its group was claimed.
type Suppression struct {
	RouteSetID string `json:"routeSetId"`
	Group      string `json:"group"`
	WinnerID   string `json:"winnerId"`
}

// InertRoute identifies an ignored route by set and position.
type InertRoute struct {
	RouteSetID string `json:"routeSetId"`
	Index      int    `json:"index"`
}

// Collision reports an output layer written by more than one source.
type Collision struct {
	OutputLayer string   `json:"outputLayer"`
	Sources     []string `json:"sources"`
}

// Resolution is the resolved routing of a studio plus its decision trace.
type Resolution struct {
	StudioID     string        `json:"studioId"`
	MappingsHash string        `json:"mappingsHash"`
	Mappings     []Mapping     `json:"mappings"`
	Routes       []ActiveRoute `json:"routes"`
	Applied      []string      `json:"applied"`
	Inactive     []string      `json:"inactive"`
	Suppressed   []Suppression `json:"suppressed"`
	Inert        []InertRoute  `json:"inert"`
	Collisions   []Collision   `json:"collisions"`
}

// MappingsResponse wraps a studio's mapping table.
type MappingsResponse struct {
	StudioID     string    `json:"studioId"`
	MappingsHash string    `json:"mappingsHash"`
	Base         bool      `json:"base"`
	Mappings     []Mapping `json:"mappings"`
}

// RoutesResponse wraps a studio's active routes.
type RoutesResponse struct {
	StudioID     string        `json:"studioId"`
	MappingsHash string        `json:"mappingsHash"`
	Routes       []ActiveRoute `json:"routes"`
}

// StudioListResponse wraps the studio list.
type StudioListResponse struct {
	Studios []StudioSummary `json:"studios"`
}

// StudioResponse wraps a single studio.
type StudioResponse struct {
	Studio Studio `json:"studio"`
}

// RouteSetActivationRequest is the body of a route set switch.
type RouteSetActivationRequest struct {
	Active bool `json:"active"`
	// Force allows deactivating an activate-only route set.
	Force bool `json:"force,omitempty"`
}

// ImportFailure records a definition that could not be stored.
type ImportFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// ImportResult summarizes a definition import.
type ImportResult struct {
	Imported []string        `json:"imported"`
	Failed   []ImportFailure `json:"failed,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DatabasePath string `json:"databasePath"`
	LockFilePath string `json:"lockFilePath"`
	Bind         string `json:"bind"`
	Studios      int    `json:"studios"`
	StartedAt    string `json:"startedAt,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
