package db

import (
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	return store
}

func testAsset(id int64, tags ...string) *Asset {
	tagModels := make([]Tag, 0, len(tags))
	for _, name := range tags {
		tagModels = append(tagModels, Tag{Name: name})
	}
	return &Asset{
		SteamID:     id,
		Name:        "Test Item",
		PreviewURL:  "https://example.com/preview.png",
		FileSize:    12345,
		TimeCreated: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		TimeUpdated: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Tags:        tagModels,
	}
}

func TestUpsertAndGetAsset(t *testing.T) {
	store := openTestStore(t)

	written, err := store.UpsertAsset(testAsset(100, "Building", "Residential"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !written {
		t.Error("Expected first upsert to report a write")
	}

	got, err := store.GetAsset(100)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a record for id 100")
	}
	if got.Name != "Test Item" {
		t.Errorf("Expected name Test Item, got %s", got.Name)
	}
	names := got.TagNames()
	slices.Sort(names)
	if !slices.Equal(names, []string{"Building", "Residential"}) {
		t.Errorf("Unexpected tags: %v", names)
	}
}

func TestGetAssetMissing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetAsset(999)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for a missing record, got %+v", got)
	}
}

func TestUpsertReplacesTags(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.UpsertAsset(testAsset(100, "Building")); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}

	updated := testAsset(100, "Mod")
	updated.Name = "Renamed"
	if _, err := store.UpsertAsset(updated); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err := store.GetAsset(100)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Expected name Renamed, got %s", got.Name)
	}
	if !slices.Equal(got.TagNames(), []string{"Mod"}) {
		t.Errorf("Expected tag set to be replaced, got %v", got.TagNames())
	}
}

func TestListAssetsFilters(t *testing.T) {
	store := openTestStore(t)

	a := testAsset(1, "Building")
	b := testAsset(2, "Mod")
	b.IsInstalled = true
	c := testAsset(3, "Mod")
	c.NeedUpdate = true
	for _, asset := range []*Asset{a, b, c} {
		if _, err := store.UpsertAsset(asset); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	boolPtr := func(v bool) *bool { return &v }

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"all", Filter{}, []int64{1, 2, 3}},
		{"by ids", Filter{SteamIDs: []int64{1, 3}}, []int64{1, 3}},
		{"by tag", Filter{Tag: "Mod"}, []int64{2, 3}},
		{"installed", Filter{IsInstalled: boolPtr(true)}, []int64{2}},
		{"need update", Filter{NeedUpdate: boolPtr(true)}, []int64{3}},
		{"not installed", Filter{IsInstalled: boolPtr(false)}, []int64{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets, err := store.ListAssets(tt.filter, 0, 0)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			got := make([]int64, 0, len(assets))
			for _, asset := range assets {
				got = append(got, asset.SteamID)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected ids %v, got %v", tt.want, got)
			}

			count, err := store.CountAssets(tt.filter)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != int64(len(tt.want)) {
				t.Errorf("Expected count %d, got %d", len(tt.want), count)
			}
		})
	}

	t.Run("pagination", func(t *testing.T) {
		assets, err := store.ListAssets(Filter{}, 1, 1)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(assets) != 1 || assets[0].SteamID != 2 {
			t.Errorf("Expected the single middle record, got %+v", assets)
		}
	})
}

func TestKnownIDs(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []int64{5, 3, 8} {
		if _, err := store.UpsertAsset(testAsset(id)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	ids, err := store.KnownIDs()
	if err != nil {
		t.Fatalf("KnownIDs failed: %v", err)
	}
	if !slices.Equal(ids, []int64{3, 5, 8}) {
		t.Errorf("Expected sorted ids, got %v", ids)
	}
}

func TestMarkInstalled(t *testing.T) {
	store := openTestStore(t)

	a := testAsset(10)
	a.NeedUpdate = true
	if _, err := store.UpsertAsset(a); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.MarkInstalled(10, at); err != nil {
		t.Fatalf("MarkInstalled failed: %v", err)
	}

	got, err := store.GetAsset(10)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.IsInstalled {
		t.Error("Expected asset to be marked installed")
	}
	if got.NeedUpdate {
		t.Error("Expected need_update to clear on install")
	}
	if !got.TimeLocal.Equal(at) {
		t.Errorf("Expected local time %v, got %v", at, got.TimeLocal)
	}
}

func TestFlagUpdates(t *testing.T) {
	store := openTestStore(t)

	local := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	stale := testAsset(1)
	stale.IsInstalled = true
	stale.TimeLocal = local

	fresh := testAsset(2)
	fresh.IsInstalled = true
	fresh.TimeLocal = local

	notInstalled := testAsset(3)

	for _, asset := range []*Asset{stale, fresh, notInstalled} {
		if _, err := store.UpsertAsset(asset); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	flagged, err := store.FlagUpdates(map[int64]time.Time{
		1: local.Add(24 * time.Hour), // newer remote: stale
		2: local.Add(-time.Hour),     // older remote: fine
		3: local.Add(24 * time.Hour), // not installed: never stale
		4: local,                     // unknown id: ignored
	})
	if err != nil {
		t.Fatalf("FlagUpdates failed: %v", err)
	}
	if flagged != 1 {
		t.Errorf("Expected 1 flagged asset, got %d", flagged)
	}

	got, _ := store.GetAsset(1)
	if !got.NeedUpdate {
		t.Error("Expected asset 1 to be flagged")
	}
	got, _ = store.GetAsset(2)
	if got.NeedUpdate {
		t.Error("Expected asset 2 to stay unflagged")
	}
	got, _ = store.GetAsset(3)
	if got.NeedUpdate {
		t.Error("Expected an uninstalled asset to stay unflagged")
	}
}

func TestDeleteAssets(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []int64{1, 2, 3} {
		if _, err := store.UpsertAsset(testAsset(id, "Building")); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	deleted, err := store.DeleteAssets([]int64{1, 3, 99})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deletions, got %d", deleted)
	}

	ids, _ := store.KnownIDs()
	if !slices.Equal(ids, []int64{2}) {
		t.Errorf("Expected only id 2 to survive, got %v", ids)
	}

	// The registry keeps the tag even when no asset links to it.
	tags, _ := store.ListTags()
	if !slices.Contains(tags, "Building") {
		t.Errorf("Expected tag registry to survive deletions, got %v", tags)
	}
}

func TestDeleteAllAssets(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []int64{1, 2} {
		if _, err := store.UpsertAsset(testAsset(id)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	deleted, err := store.DeleteAllAssets()
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deletions, got %d", deleted)
	}

	count, _ := store.CountAssets(Filter{})
	if count != 0 {
		t.Errorf("Expected an empty catalog, got %d records", count)
	}
}

func TestTagRegistry(t *testing.T) {
	store := openTestStore(t)

	if err := store.InsertTags([]string{"Building", "Mod", "Building"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	tags, err := store.ListTags()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !slices.Equal(tags, []string{"Building", "Mod"}) {
		t.Errorf("Expected deduplicated sorted tags, got %v", tags)
	}

	if _, err := store.UpsertAsset(testAsset(1, "Mod")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	count, err := store.CountAssetsWithTag("Mod")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 asset with tag Mod, got %d", count)
	}

	removed, err := store.DeleteTags([]string{"Mod", "Missing"})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed tag, got %d", removed)
	}

	got, err := store.GetAsset(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.TagNames()) != 0 {
		t.Errorf("Expected the asset's tag links to be cleared, got %v", got.TagNames())
	}
}
