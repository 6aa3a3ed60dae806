package studio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studiorouter/internal/routing"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const studioColumns = "id, name, organization_id, blueprint_id, settings_json, blueprint_config_json, mappings_hash, rundown_version_hash, created_at, updated_at"

func loadStudio(ctx context.Context, q querier, id string) (*Studio, error) {
	var (
		st             Studio
		organizationID sql.NullString
		blueprintID    sql.NullString
		settingsJSON   string
		configJSON     string
		mappingsHash   sql.NullString
		rundownHash    sql.NullString
		createdRaw     string
		updatedRaw     string
	)
	err := q.QueryRowContext(ctx, `SELECT `+studioColumns+` FROM studios WHERE id = ?`, id).Scan(
		&st.ID,
		&st.Name,
		&organizationID,
		&blueprintID,
		&settingsJSON,
		&configJSON,
		&mappingsHash,
		&rundownHash,
		&createdRaw,
		&updatedRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get studio %s: %w", id, err)
	}
	st.OrganizationID = organizationID.String
	st.BlueprintID = blueprintID.String
	st.MappingsHash = mappingsHash.String
	st.RundownVersionHash = rundownHash.String
	if err := json.Unmarshal([]byte(settingsJSON), &st.Settings); err != nil {
		return nil, fmt.Errorf("decode settings of studio %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(configJSON), &st.BlueprintConfig); err != nil {
		return nil, fmt.Errorf("decode blueprint config of studio %s: %w", id, err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		st.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		st.UpdatedAt = updated
	}

	if st.Mappings, err = loadMappings(ctx, q, id); err != nil {
		return nil, err
	}
	if st.RouteSets, err = loadRouteSets(ctx, q, id); err != nil {
		return nil, err
	}
	if st.ExclusivityGroups, err = loadGroups(ctx, q, id); err != nil {
		return nil, err
	}
	return &st, nil
}

func loadMappings(ctx context.Context, q querier, studioID string) (*routing.Mappings, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT layer, mapping_json FROM studio_mappings WHERE studio_id = ? ORDER BY position`, studioID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	mappings := routing.NewMappings()
	for rows.Next() {
		var layer, raw string
		if err := rows.Scan(&layer, &raw); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		var mapping routing.Mapping
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return nil, fmt.Errorf("decode mapping %s: %w", layer, err)
		}
		mappings.Set(layer, mapping)
	}
	return mappings, rows.Err()
}

func loadRouteSets(ctx context.Context, q querier, studioID string) (routing.RouteSets, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, active, exclusivity_group, behavior, routes_json
         FROM route_sets WHERE studio_id = ? ORDER BY position`, studioID)
	if err != nil {
		return nil, fmt.Errorf("list route sets: %w", err)
	}
	defer rows.Close()

	sets := routing.RouteSets{}
	for rows.Next() {
		var (
			set      routing.RouteSet
			active   int
			group    sql.NullString
			behavior string
			routes   string
		)
		if err := rows.Scan(&set.ID, &set.Name, &active, &group, &behavior, &routes); err != nil {
			return nil, fmt.Errorf("scan route set: %w", err)
		}
		set.Active = active != 0
		set.ExclusivityGroup = group.String
		if set.Behavior, err = routing.ParseBehavior(behavior); err != nil {
			return nil, fmt.Errorf("route set %s: %w", set.ID, err)
		}
		if err := json.Unmarshal([]byte(routes), &set.Routes); err != nil {
			return nil, fmt.Errorf("decode routes of %s: %w", set.ID, err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

func loadGroups(ctx context.Context, q querier, studioID string) ([]ExclusivityGroup, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name FROM route_set_exclusivity_groups WHERE studio_id = ? ORDER BY position`, studioID)
	if err != nil {
		return nil, fmt.Errorf("list exclusivity groups: %w", err)
	}
	defer rows.Close()

	var groups []ExclusivityGroup
	for rows.Next() {
		var g ExclusivityGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan exclusivity group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// writeStudio upserts the studio row and rewrites its child rows.
func writeStudio(ctx context.Context, q querier, st *Studio) error {
	settingsJSON, err := json.Marshal(st.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	config := st.BlueprintConfig
	if config == nil {
		config = map[string]any{}
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode blueprint config: %w", err)
	}

	if _, err := q.ExecContext(ctx, `INSERT INTO studios (`+studioColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            organization_id = excluded.organization_id,
            blueprint_id = excluded.blueprint_id,
            settings_json = excluded.settings_json,
            blueprint_config_json = excluded.blueprint_config_json,
            mappings_hash = excluded.mappings_hash,
            rundown_version_hash = excluded.rundown_version_hash,
            updated_at = excluded.updated_at`,
		st.ID,
		st.Name,
		nullableString(st.OrganizationID),
		nullableString(st.BlueprintID),
		string(settingsJSON),
		string(configJSON),
		nullableString(st.MappingsHash),
		nullableString(st.RundownVersionHash),
		formatTime(st.CreatedAt),
		formatTime(st.UpdatedAt),
	); err != nil {
		return fmt.Errorf("upsert studio: %w", err)
	}

	for _, table := range []string{"studio_mappings", "route_sets", "route_set_exclusivity_groups"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE studio_id = ?`, st.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, entry := range st.Mappings.List() {
		raw, err := json.Marshal(entry.Mapping)
		if err != nil {
			return fmt.Errorf("encode mapping %s: %w", entry.Layer, err)
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO studio_mappings (studio_id, layer, position, mapping_json) VALUES (?, ?, ?, ?)`,
			st.ID, entry.Layer, i, string(raw)); err != nil {
			return fmt.Errorf("insert mapping %s: %w", entry.Layer, err)
		}
	}

	for i, set := range st.RouteSets {
		routes := set.Routes
		if routes == nil {
			routes = []routing.Route{}
		}
		raw, err := json.Marshal(routes)
		if err != nil {
			return fmt.Errorf("encode routes of %s: %w", set.ID, err)
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO route_sets (studio_id, id, position, name, active, exclusivity_group, behavior, routes_json)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, set.ID, i, set.Name, boolToInt(set.Active), nullableString(set.ExclusivityGroup),
			set.Behavior.String(), string(raw)); err != nil {
			return fmt.Errorf("insert route set %s: %w", set.ID, err)
		}
	}

	for i, group := range st.ExclusivityGroups {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO route_set_exclusivity_groups (studio_id, id, position, name) VALUES (?, ?, ?, ?)`,
			st.ID, group.ID, i, group.Name); err != nil {
			return fmt.Errorf("insert exclusivity group %s: %w", group.ID, err)
		}
	}
	return nil
}

// prepare fills defaults, validates, and refreshes both hashes.
func prepare(st *Studio) error {
	st.ID = strings.TrimSpace(st.ID)
	if st.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if strings.TrimSpace(st.Name) == "" {
		st.Name = st.ID
	}
	if st.Mappings == nil {
		st.Mappings = routing.NewMappings()
	}
	if st.RouteSets == nil {
		st.RouteSets = routing.RouteSets{}
	}
	for _, layer := range st.Mappings.Layers() {
		if strings.TrimSpace(layer) == "" {
			return fmt.Errorf("%w: mapping layer name is required", ErrInvalid)
		}
	}
	for i := range st.RouteSets {
		st.RouteSets[i].ID = strings.TrimSpace(st.RouteSets[i].ID)
		st.RouteSets[i].ExclusivityGroup = strings.TrimSpace(st.RouteSets[i].ExclusivityGroup)
	}
	if err := st.RouteSets.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	seen := make(map[string]struct{}, len(st.ExclusivityGroups))
	for i := range st.ExclusivityGroups {
		st.ExclusivityGroups[i].ID = strings.TrimSpace(st.ExclusivityGroups[i].ID)
		group := st.ExclusivityGroups[i]
		if group.ID == "" {
			return fmt.Errorf("%w: exclusivity group id is required", ErrInvalid)
		}
		if _, dup := seen[group.ID]; dup {
			return fmt.Errorf("%w: duplicate exclusivity group %q", ErrInvalid, group.ID)
		}
		seen[group.ID] = struct{}{}
	}
	for _, id := range st.RouteSets.Groups() {
		if _, ok := seen[id]; !ok {
			st.ExclusivityGroups = append(st.ExclusivityGroups, ExclusivityGroup{ID: id, Name: id})
			seen[id] = struct{}{}
		}
	}

	var err error
	if st.MappingsHash, err = MappingsHash(st.Mappings, st.RouteSets); err != nil {
		return err
	}
	if st.RundownVersionHash, err = RundownVersionHash(st.BlueprintConfig); err != nil {
		return err
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
