package workshop

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"workshop-sync/db"
	"workshop-sync/steam"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	mu     sync.Mutex
	assets map[int64]db.Asset
	tags   map[string]struct{}

	deleteCalls [][]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets: map[int64]db.Asset{},
		tags:   map[string]struct{}{},
	}
}

func (s *fakeStore) GetAsset(id int64) (*db.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *fakeStore) ListAssets(f db.Filter, skip, limit int) ([]db.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Asset
	for id, a := range s.assets {
		if len(f.SteamIDs) > 0 && !slices.Contains(f.SteamIDs, id) {
			continue
		}
		if f.IsInstalled != nil && a.IsInstalled != *f.IsInstalled {
			continue
		}
		if f.NeedUpdate != nil && a.NeedUpdate != *f.NeedUpdate {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SteamID < out[j].SteamID })
	if skip > 0 {
		if skip > len(out) {
			skip = len(out)
		}
		out = out[skip:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CountAssets(f db.Filter) (int64, error) {
	all, err := s.ListAssets(f, 0, 0)
	return int64(len(all)), err
}

func (s *fakeStore) KnownIDs() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.assets))
	for id := range s.assets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *fakeStore) UpsertAsset(a *db.Asset) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.SteamID] = *a
	for _, t := range a.Tags {
		s.tags[t.Name] = struct{}{}
	}
	return true, nil
}

func (s *fakeStore) MarkInstalled(id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil
	}
	a.IsInstalled = true
	a.TimeLocal = at
	a.NeedUpdate = false
	s.assets[id] = a
	return nil
}

func (s *fakeStore) FlagUpdates(remoteUpdated map[int64]time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flagged int64
	for id, updated := range remoteUpdated {
		a, ok := s.assets[id]
		if !ok {
			continue
		}
		a.TimeUpdated = updated
		a.NeedUpdate = a.IsInstalled && a.TimeLocal.Before(updated)
		s.assets[id] = a
		if a.NeedUpdate {
			flagged++
		}
	}
	return flagged, nil
}

func (s *fakeStore) DeleteAssets(ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, ids)
	var deleted int64
	for _, id := range ids {
		if _, ok := s.assets[id]; ok {
			delete(s.assets, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeStore) DeleteAllAssets() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := int64(len(s.assets))
	s.assets = map[int64]db.Asset{}
	return deleted, nil
}

func (s *fakeStore) ListTags() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tags))
	for name := range s.tags {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *fakeStore) InsertTags(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.tags[name] = struct{}{}
	}
	return nil
}

func (s *fakeStore) DeleteTags(names []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, name := range names {
		if _, ok := s.tags[name]; ok {
			delete(s.tags, name)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeStore) CountAssetsWithTag(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, a := range s.assets {
		for _, t := range a.Tags {
			if t.Name == name {
				count++
				break
			}
		}
	}
	return count, nil
}

// fakeRemote is a scripted Remote for engine tests.
type fakeRemote struct {
	mu sync.Mutex

	favorites    map[int64]struct{}
	favoritesErr error

	details    map[int64]steam.Details
	detailsErr error

	authors map[int64]steam.Author

	workshopTags    []string
	workshopTagsErr error

	fetchedIDs [][]int64
}

func (r *fakeRemote) ListFavorites() (map[int64]struct{}, error) {
	if r.favoritesErr != nil {
		return nil, r.favoritesErr
	}
	out := make(map[int64]struct{}, len(r.favorites))
	for id := range r.favorites {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *fakeRemote) FetchDetails(ids []int64) (map[int64]steam.Details, error) {
	r.mu.Lock()
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	r.fetchedIDs = append(r.fetchedIDs, sorted)
	r.mu.Unlock()

	if r.detailsErr != nil {
		return nil, r.detailsErr
	}
	out := map[int64]steam.Details{}
	for _, id := range ids {
		if d, ok := r.details[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (r *fakeRemote) GetAuthor(id int64) (steam.Author, error) {
	if a, ok := r.authors[id]; ok {
		return a, nil
	}
	return steam.Author{}, fmt.Errorf("no profile for %d", id)
}

func (r *fakeRemote) ListWorkshopTags() ([]string, error) {
	if r.workshopTagsErr != nil {
		return nil, r.workshopTagsErr
	}
	return slices.Clone(r.workshopTags), nil
}

// newTestEngine wires an engine against the fakes and a temp directory tree.
func newTestEngine(t *testing.T) (*Engine, *fakeStore, *fakeRemote) {
	t.Helper()

	root := t.TempDir()
	paths := Paths{
		Assets:   filepath.Join(root, "Maps"),
		Mods:     filepath.Join(root, "Mods"),
		Previews: filepath.Join(root, "previews"),
	}
	for _, dir := range []string{paths.Assets, paths.Mods, paths.Previews} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	store := newFakeStore()
	remote := &fakeRemote{
		favorites: map[int64]struct{}{},
		details:   map[int64]steam.Details{},
		authors:   map[int64]steam.Author{},
	}

	engine := &Engine{
		store:   store,
		remote:  remote,
		paths:   paths,
		mirrors: defaultMirrors(),
		workers: 2,
		probe:   &http.Client{Timeout: time.Second},
		fetch:   &http.Client{Timeout: time.Second},
		log:     zap.NewNop().Sugar(),
	}
	return engine, store, remote
}

// installDir materializes a fake install for id under the given root.
func installDir(t *testing.T, root string, id int64, mtime time.Time) string {
	t.Helper()
	dir := filepath.Join(root, strconv.FormatInt(id, 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create install dir: %v", err)
	}
	file := filepath.Join(dir, "content.crp")
	if err := os.WriteFile(file, []byte("payload"), 0644); err != nil {
		t.Fatalf("Failed to write content file: %v", err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(file, mtime, mtime); err != nil {
			t.Fatalf("Failed to set mtime: %v", err)
		}
	}
	return dir
}

func details(id int64, title string, updated time.Time, tags ...string) steam.Details {
	return steam.Details{
		SteamID:     id,
		Title:       title,
		Tags:        tags,
		PreviewURL:  "",
		FileSize:    2048,
		TimeCreated: updated.Add(-24 * time.Hour),
		TimeUpdated: updated,
	}
}
