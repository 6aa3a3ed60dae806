package studio

import (
	"maps"
	"time"

	"studiorouter/internal/routing"
)

// Settings holds studio-wide operational settings.
type Settings struct {
	// MediaPreviewsURL is where media previews are exposed.
	MediaPreviewsURL string `json:"media_previews_url,omitempty"`
	// CoreURL is the public URL of the control system.
	CoreURL string `json:"core_url,omitempty"`
	// SlackEvaluationURLs receive operator evaluations, comma separated.
	SlackEvaluationURLs string `json:"slack_evaluation_urls,omitempty"`
	// SupportedMediaFormats lists resolutions playable in the studio.
	SupportedMediaFormats string `json:"supported_media_formats,omitempty"`
	// SupportedAudioStreams lists audio stream formats playable in the studio.
	SupportedAudioStreams string `json:"supported_audio_streams,omitempty"`
	EnablePlayFromAnywhere bool  `json:"enable_play_from_anywhere,omitempty"`
	// ForceSettingNowTime sets the now-time immediately even with a single
	// playout gateway.
	ForceSettingNowTime bool `json:"force_setting_now_time,omitempty"`
	// NowSafeLatencyMS is extra delay added to the now-time.
	NowSafeLatencyMS int `json:"now_safe_latency_ms,omitempty"`
}

// ExclusivityGroup names a group that route sets can belong to.
type ExclusivityGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Studio is one production unit and its routing configuration.
type Studio struct {
	ID                 string
	Name               string
	OrganizationID     string
	BlueprintID        string
	Settings           Settings
	BlueprintConfig    map[string]any
	Mappings           *routing.Mappings
	RouteSets          routing.RouteSets
	ExclusivityGroups  []ExclusivityGroup
	MappingsHash       string
	RundownVersionHash string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EffectiveMappings resolves the studio's route sets against its base
// mappings.
func (s *Studio) EffectiveMappings() *routing.Mappings {
	return routing.Resolve(s.RouteSets, s.Mappings)
}

// ActiveRoutes returns the routes currently applied in the studio.
func (s *Studio) ActiveRoutes() routing.ActiveRoutes {
	return routing.SelectActiveRoutes(s.RouteSets)
}

// Explain resolves the studio and reports each routing decision.
func (s *Studio) Explain() routing.Resolution {
	return routing.Explain(s.RouteSets, s.Mappings)
}

// Clone returns an independent copy of the studio.
func (s *Studio) Clone() *Studio {
	if s == nil {
		return nil
	}
	out := *s
	out.Mappings = s.Mappings.Clone()
	out.RouteSets = s.RouteSets.Clone()
	if s.BlueprintConfig != nil {
		out.BlueprintConfig = maps.Clone(s.BlueprintConfig)
	}
	if s.ExclusivityGroups != nil {
		out.ExclusivityGroups = append([]ExclusivityGroup(nil), s.ExclusivityGroups...)
	}
	return &out
}

// ChangeKind classifies a committed studio change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes a committed write, delivered to subscribers.
type Change struct {
	StudioID string
	Kind     ChangeKind
	// MappingsHash is the hash after the change; empty for deletions.
	MappingsHash string
	// MappingsChanged reports whether mappings or route sets changed, which
	// is what invalidates resolved tables.
	MappingsChanged bool
}
