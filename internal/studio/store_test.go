package studio_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"studiorouter/internal/routing"
	"studiorouter/internal/studio"
	"studiorouter/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	applied, err := store.AppliedMigrations(context.Background())
	if err != nil {
		t.Fatalf("AppliedMigrations failed: %v", err)
	}
	want := []string{"0001_route_set_exclusivity_groups", "0002_route_set_position_index"}
	if !slices.Equal(applied, want) {
		t.Fatalf("expected migrations %v, got %v", want, applied)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := studio.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	testsupport.MustCreateStudio(t, store, "s1")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	st, err := reopened.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st == nil {
		t.Fatal("expected studio to survive reopen")
	}
}

func TestCreateRoundTripPreservesOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created := testsupport.MustCreateStudio(t, store, "s1")
	if created.MappingsHash == "" || created.RundownVersionHash == "" {
		t.Fatalf("expected hashes to be computed, got %q / %q", created.MappingsHash, created.RundownVersionHash)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	fetched, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected studio")
	}
	wantLayers := []string{"program", "cam1", "cam2", "audio", "mic1"}
	if got := fetched.Mappings.Layers(); !slices.Equal(got, wantLayers) {
		t.Fatalf("expected layers %v, got %v", wantLayers, got)
	}
	var setIDs []string
	for _, set := range fetched.RouteSets {
		setIDs = append(setIDs, set.ID)
	}
	if want := []string{"use-cam1", "use-cam2", "mics"}; !slices.Equal(setIDs, want) {
		t.Fatalf("expected route sets %v, got %v", want, setIDs)
	}
	mics, _ := fetched.RouteSets.Get("mics")
	if mics.Behavior != routing.BehaviorActivateOnly {
		t.Fatalf("expected activate_only behavior, got %s", mics.Behavior)
	}
	if mics.Routes[0].Remapping == nil || mics.Routes[0].Remapping.LookaheadDepth == nil || *mics.Routes[0].Remapping.LookaheadDepth != 2 {
		t.Fatalf("expected remapping to round trip, got %#v", mics.Routes[0].Remapping)
	}
	if fetched.Settings.NowSafeLatencyMS != 40 {
		t.Fatalf("expected settings to round trip, got %#v", fetched.Settings)
	}
	if fetched.BlueprintConfig["show"] != "news" {
		t.Fatalf("expected blueprint config to round trip, got %#v", fetched.BlueprintConfig)
	}
	if fetched.MappingsHash != created.MappingsHash {
		t.Fatalf("stored hash %q differs from created %q", fetched.MappingsHash, created.MappingsHash)
	}
	if len(fetched.ExclusivityGroups) != 1 || fetched.ExclusivityGroups[0].Name != "Main camera" {
		t.Fatalf("unexpected exclusivity groups %#v", fetched.ExclusivityGroups)
	}
}

func TestCreateRejectsDuplicateAndInvalid(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustCreateStudio(t, store, "s1")
	if _, err := store.Create(ctx, testsupport.NewStudio("s1")); !errors.Is(err, studio.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	invalid := testsupport.NewStudio("s2")
	invalid.RouteSets = append(invalid.RouteSets, invalid.RouteSets[0])
	if _, err := store.Create(ctx, invalid); !errors.Is(err, studio.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for duplicate route set, got %v", err)
	}

	if _, err := store.Create(ctx, &studio.Studio{}); !errors.Is(err, studio.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing id, got %v", err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	st, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil studio, got %#v", st)
	}
}

func TestListAndDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	b := testsupport.NewStudio("b")
	b.Name = "Bravo"
	a := testsupport.NewStudio("a")
	a.Name = "Alpha"
	for _, st := range []*studio.Studio{b, a} {
		if _, err := store.Create(ctx, st); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	studios, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(studios) != 2 || studios[0].ID != "a" || studios[1].ID != "b" {
		t.Fatalf("expected studios ordered by name, got %d entries", len(studios))
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "a"); !errors.Is(err, studio.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	studios, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(studios) != 1 || studios[0].ID != "b" {
		t.Fatalf("expected only studio b to remain")
	}
}

func TestReplaceKeepsCreatedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created := testsupport.MustCreateStudio(t, store, "s1")

	next := testsupport.NewStudio("s1")
	next.Name = "Renamed"
	replaced, err := store.Replace(ctx, next)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if !replaced.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected CreatedAt %v to be kept, got %v", created.CreatedAt, replaced.CreatedAt)
	}
	if replaced.MappingsHash != created.MappingsHash {
		t.Fatal("expected identical routing to keep the same hash")
	}

	fresh, err := store.Replace(ctx, testsupport.NewStudio("s2"))
	if err != nil {
		t.Fatalf("Replace insert failed: %v", err)
	}
	if fresh.CreatedAt.IsZero() {
		t.Fatal("expected inserted studio to get CreatedAt")
	}
}

func TestSetRouteSetActiveSwitchesGroup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created := testsupport.MustCreateStudio(t, store, "s1")

	updated, err := store.SetRouteSetActive(ctx, "s1", "use-cam2", true, false)
	if err != nil {
		t.Fatalf("SetRouteSetActive failed: %v", err)
	}
	cam1, _ := updated.RouteSets.Get("use-cam1")
	cam2, _ := updated.RouteSets.Get("use-cam2")
	mics, _ := updated.RouteSets.Get("mics")
	if cam1.Active || !cam2.Active {
		t.Fatalf("expected use-cam2 to replace use-cam1, got cam1=%v cam2=%v", cam1.Active, cam2.Active)
	}
	if !mics.Active {
		t.Fatal("expected ungrouped set to be untouched")
	}
	if updated.MappingsHash == created.MappingsHash {
		t.Fatal("expected hash to change with route set state")
	}

	program, ok := updated.EffectiveMappings().Get("program")
	if !ok || program.DeviceID != "ccg1" {
		t.Fatalf("expected program to resolve to cam2, got %#v", program)
	}
}

func TestSetRouteSetActiveRespectsActivateOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustCreateStudio(t, store, "s1")

	if _, err := store.SetRouteSetActive(ctx, "s1", "mics", false, false); !errors.Is(err, studio.ErrActivateOnly) {
		t.Fatalf("expected ErrActivateOnly, got %v", err)
	}
	st, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if mics, _ := st.RouteSets.Get("mics"); !mics.Active {
		t.Fatal("rejected deactivation must not be persisted")
	}

	forced, err := store.SetRouteSetActive(ctx, "s1", "mics", false, true)
	if err != nil {
		t.Fatalf("forced deactivation failed: %v", err)
	}
	if mics, _ := forced.RouteSets.Get("mics"); mics.Active {
		t.Fatal("expected forced deactivation to apply")
	}
}

func TestSetRouteSetActiveErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustCreateStudio(t, store, "s1")

	cases := []struct {
		name     string
		studioID string
		setID    string
		want     error
	}{
		{"missing studio", "nope", "use-cam1", studio.ErrNotFound},
		{"missing route set", "s1", "nope", studio.ErrRouteSetNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.SetRouteSetActive(ctx, tc.studioID, tc.setID, true, false)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestHashChangesOnlyWithRouting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created := testsupport.MustCreateStudio(t, store, "s1")

	configured, err := store.SetBlueprintConfig(ctx, "s1", map[string]any{"show": "sport"})
	if err != nil {
		t.Fatalf("SetBlueprintConfig failed: %v", err)
	}
	if configured.MappingsHash != created.MappingsHash {
		t.Fatal("blueprint config must not change the mappings hash")
	}
	if configured.RundownVersionHash == created.RundownVersionHash {
		t.Fatal("expected rundown version hash to change")
	}

	mappings := created.Mappings.Clone()
	mappings.Set("graphics", routing.Mapping{Device: "vizrt", DeviceID: "viz0"})
	remapped, err := store.SetMappings(ctx, "s1", mappings)
	if err != nil {
		t.Fatalf("SetMappings failed: %v", err)
	}
	if remapped.MappingsHash == created.MappingsHash {
		t.Fatal("expected mappings hash to change")
	}
	if remapped.RundownVersionHash != configured.RundownVersionHash {
		t.Fatal("mappings must not change the rundown version hash")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		changes []studio.Change
	)
	cancel := store.Subscribe(func(change studio.Change) {
		mu.Lock()
		changes = append(changes, change)
		mu.Unlock()
	})

	testsupport.MustCreateStudio(t, store, "s1")
	if _, err := store.SetSettings(ctx, "s1", studio.Settings{CoreURL: "http://core"}); err != nil {
		t.Fatalf("SetSettings failed: %v", err)
	}
	if _, err := store.SetRouteSetActive(ctx, "s1", "use-cam2", true, false); err != nil {
		t.Fatalf("SetRouteSetActive failed: %v", err)
	}
	cancel()
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes before cancel, got %d", len(changes))
	}
	if changes[0].Kind != studio.ChangeCreated || !changes[0].MappingsChanged {
		t.Fatalf("unexpected create change %#v", changes[0])
	}
	if changes[1].Kind != studio.ChangeUpdated || changes[1].MappingsChanged {
		t.Fatalf("settings change must not report mappings changed: %#v", changes[1])
	}
	if !changes[2].MappingsChanged || changes[2].MappingsHash == changes[0].MappingsHash {
		t.Fatalf("route set switch must report a new hash: %#v", changes[2])
	}
}

func TestExclusivityGroupCatalogue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustCreateStudio(t, store, "s1")

	st, err := store.SetExclusivityGroup(ctx, "s1", "aux", "Aux bus")
	if err != nil {
		t.Fatalf("SetExclusivityGroup failed: %v", err)
	}
	if len(st.ExclusivityGroups) != 2 || st.ExclusivityGroups[1].ID != "aux" {
		t.Fatalf("expected aux group appended, got %#v", st.ExclusivityGroups)
	}

	st, err = store.SetExclusivityGroup(ctx, "s1", "main", "Program camera")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if st.ExclusivityGroups[0].Name != "Program camera" {
		t.Fatalf("expected rename in place, got %#v", st.ExclusivityGroups)
	}

	if _, err := store.RemoveExclusivityGroup(ctx, "s1", "main"); !errors.Is(err, studio.ErrInvalid) {
		t.Fatalf("expected in-use group removal to fail, got %v", err)
	}
	st, err = store.RemoveExclusivityGroup(ctx, "s1", "aux")
	if err != nil {
		t.Fatalf("RemoveExclusivityGroup failed: %v", err)
	}
	if len(st.ExclusivityGroups) != 1 {
		t.Fatalf("expected one group left, got %#v", st.ExclusivityGroups)
	}
}

func TestRouteSetGroupsAreCatalogued(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	st := testsupport.NewStudio("s1")
	st.ExclusivityGroups = nil
	created, err := store.Create(context.Background(), st)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(created.ExclusivityGroups) != 1 || created.ExclusivityGroups[0] != (studio.ExclusivityGroup{ID: "main", Name: "main"}) {
		t.Fatalf("expected referenced group to be catalogued, got %#v", created.ExclusivityGroups)
	}
}

func TestGetIsConsistentDuringRouteSetToggles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustCreateStudio(t, store, "s1")

	done := make(chan struct{})
	writeErr := make(chan error, 1)
	go func() {
		defer close(writeErr)
		sets := []string{"use-cam2", "use-cam1"}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if _, err := store.SetRouteSetActive(ctx, "s1", sets[i%2], true, false); err != nil {
				writeErr <- err
				return
			}
		}
	}()

	for i := 0; i < 300; i++ {
		st, err := store.Get(ctx, "s1")
		if err != nil {
			close(done)
			t.Fatalf("Get failed: %v", err)
		}
		hash, err := studio.MappingsHash(st.Mappings, st.RouteSets)
		if err != nil {
			close(done)
			t.Fatalf("MappingsHash failed: %v", err)
		}
		if hash != st.MappingsHash {
			close(done)
			t.Fatalf("read %d returned route sets that do not match stored hash %s", i, st.MappingsHash)
		}
	}
	close(done)
	if err := <-writeErr; err != nil {
		t.Fatalf("SetRouteSetActive failed: %v", err)
	}
}

func TestCreateTrimsRouteSetAndGroupIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	st := testsupport.NewStudio("s1")
	st.ExclusivityGroups = []studio.ExclusivityGroup{{ID: " main ", Name: "Main"}}
	for i := range st.RouteSets {
		st.RouteSets[i].ID = " " + st.RouteSets[i].ID + "\t"
		if st.RouteSets[i].ExclusivityGroup != "" {
			st.RouteSets[i].ExclusivityGroup = " " + st.RouteSets[i].ExclusivityGroup
		}
	}
	created, err := store.Create(ctx, st)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok := created.RouteSets.Get("use-cam1"); !ok {
		t.Fatalf("expected trimmed route set ids, got %#v", created.RouteSets)
	}
	if len(created.ExclusivityGroups) != 1 || created.ExclusivityGroups[0].ID != "main" {
		t.Fatalf("expected one trimmed group, got %#v", created.ExclusivityGroups)
	}

	updated, err := store.SetRouteSetActive(ctx, "s1", "use-cam2", true, false)
	if err != nil {
		t.Fatalf("SetRouteSetActive by trimmed id failed: %v", err)
	}
	if cam1, _ := updated.RouteSets.Get("use-cam1"); cam1.Active {
		t.Fatal("expected trimmed group to keep use-cam1 and use-cam2 exclusive")
	}

	dup := testsupport.NewStudio("s2")
	dup.RouteSets[1].ID = " " + dup.RouteSets[0].ID
	if _, err := store.Create(ctx, dup); !errors.Is(err, studio.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for ids equal after trimming, got %v", err)
	}
}
