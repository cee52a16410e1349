package workshop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"workshop-sync/db"
	"workshop-sync/steam"
)

// ErrAssetNotFound is returned when an id has no data in the catalog and
// none can be fetched remotely. It indicates a caller-side mistake rather
// than a transient fault, so unlike every other failure it propagates.
var ErrAssetNotFound = errors.New("asset not found")

// Asset is the in-memory representation of one catalog item. Kind, Path,
// IsInstalled, TimeLocal and NeedUpdate are always re-derived at
// construction time; they are never trusted from a stale persisted copy.
type Asset struct {
	eng *Engine

	SteamID     int64
	Name        string
	Tags        []string
	PreviewURL  string
	FileSize    int64
	TimeCreated time.Time
	TimeUpdated time.Time
	Author      steam.Author

	// Derived.
	Kind        string
	Path        string
	IsInstalled bool
	TimeLocal   time.Time
	NeedUpdate  bool
}

// derived is the filesystem-dependent state shared by every construction
// path. Keeping it in one function keeps the invariants uniform.
type derived struct {
	Kind        string
	Path        string
	IsInstalled bool
	TimeLocal   time.Time
	NeedUpdate  bool
}

func derive(id int64, tags []string, timeUpdated time.Time, paths Paths) derived {
	kind := KindAsset
	if slices.Contains(tags, TagMod) {
		kind = KindMod
	}

	path := filepath.Join(paths.rootFor(kind), fmt.Sprintf("%d", id))
	_, statErr := os.Stat(path)
	installed := statErr == nil

	var local time.Time
	if installed {
		local = newestMTime(path)
	}

	return derived{
		Kind:        kind,
		Path:        path,
		IsInstalled: installed,
		TimeLocal:   local,
		NeedUpdate:  installed && local.Before(timeUpdated),
	}
}

// normalizeTags replaces an empty tag set with the sentinel label.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{TagNone}
	}
	return tags
}

// GetAsset constructs the entity for id. The catalog record is preferred
// unless forceRemote is set; freshly fetched metadata is the fallback. When
// neither source has data the construction fails with ErrAssetNotFound.
func (e *Engine) GetAsset(id int64, forceRemote bool) (*Asset, error) {
	if !forceRemote {
		rec, err := e.store.GetAsset(id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return e.assetFromRecord(rec), nil
		}
	}

	details, err := e.remote.FetchDetails([]int64{id})
	if err != nil {
		e.log.Errorw("Failed to fetch metadata", zap.Int64("steam_id", id), zap.Error(err))
	}
	d, ok := details[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAssetNotFound, id)
	}
	return e.assetFromDetails(d), nil
}

// assetFromRecord maps the persisted shape onto the entity, re-deriving all
// filesystem-dependent state.
func (e *Engine) assetFromRecord(rec *db.Asset) *Asset {
	tags := normalizeTags(rec.TagNames())
	d := derive(rec.SteamID, tags, rec.TimeUpdated, e.paths)

	return &Asset{
		eng:         e,
		SteamID:     rec.SteamID,
		Name:        rec.Name,
		Tags:        tags,
		PreviewURL:  rec.PreviewURL,
		FileSize:    rec.FileSize,
		TimeCreated: rec.TimeCreated,
		TimeUpdated: rec.TimeUpdated,
		Author: steam.Author{
			SteamID64:    rec.AuthorID,
			SteamID:      rec.AuthorHandle,
			AvatarIcon:   rec.AuthorAvatarIcon,
			AvatarMedium: rec.AuthorAvatarMedium,
			AvatarFull:   rec.AuthorAvatarFull,
			CustomURL:    rec.AuthorCustomURL,
		},
		Kind:        d.Kind,
		Path:        d.Path,
		IsInstalled: d.IsInstalled,
		TimeLocal:   d.TimeLocal,
		NeedUpdate:  d.NeedUpdate,
	}
}

// assetFromDetails maps freshly fetched remote metadata onto the entity.
// The author profile is hydrated here, once per fetch; a profile failure
// degrades to an empty author rather than failing the item.
func (e *Engine) assetFromDetails(d steam.Details) *Asset {
	var author steam.Author
	if d.Creator != 0 {
		var err error
		author, err = e.remote.GetAuthor(d.Creator)
		if err != nil {
			e.log.Errorw("Failed to fetch author profile",
				zap.Int64("steam_id", d.SteamID),
				zap.Int64("creator", d.Creator),
				zap.Error(err),
			)
		}
	}

	tags := normalizeTags(d.Tags)
	dv := derive(d.SteamID, tags, d.TimeUpdated, e.paths)

	return &Asset{
		eng:         e,
		SteamID:     d.SteamID,
		Name:        d.Title,
		Tags:        tags,
		PreviewURL:  d.PreviewURL,
		FileSize:    d.FileSize,
		TimeCreated: d.TimeCreated,
		TimeUpdated: d.TimeUpdated,
		Author:      author,
		Kind:        dv.Kind,
		Path:        dv.Path,
		IsInstalled: dv.IsInstalled,
		TimeLocal:   dv.TimeLocal,
		NeedUpdate:  dv.NeedUpdate,
	}
}

// record maps the entity back onto the persisted shape.
func (a *Asset) record() *db.Asset {
	tags := make([]db.Tag, 0, len(a.Tags))
	for _, name := range a.Tags {
		tags = append(tags, db.Tag{Name: name})
	}

	return &db.Asset{
		SteamID:            a.SteamID,
		Name:               a.Name,
		PreviewURL:         a.PreviewURL,
		FileSize:           a.FileSize,
		TimeCreated:        a.TimeCreated,
		TimeUpdated:        a.TimeUpdated,
		TimeLocal:          a.TimeLocal,
		IsInstalled:        a.IsInstalled,
		NeedUpdate:         a.NeedUpdate,
		AuthorID:           a.Author.SteamID64,
		AuthorHandle:       a.Author.SteamID,
		AuthorAvatarIcon:   a.Author.AvatarIcon,
		AuthorAvatarMedium: a.Author.AvatarMedium,
		AuthorAvatarFull:   a.Author.AvatarFull,
		AuthorCustomURL:    a.Author.CustomURL,
		Tags:               tags,
	}
}

// Save upserts the full normalized record. Reports whether a write occurred.
func (a *Asset) Save() (bool, error) {
	return a.eng.store.UpsertAsset(a.record())
}

// RefreshFromRemote re-fetches this item's metadata, rebuilds the entity in
// place, persists it and makes sure its preview exists. When the remote has
// no data for the id the refresh is logged and skipped.
func (a *Asset) RefreshFromRemote() error {
	e := a.eng
	details, err := e.remote.FetchDetails([]int64{a.SteamID})
	if err != nil {
		e.log.Errorw("Failed to refresh metadata", zap.Int64("steam_id", a.SteamID), zap.Error(err))
		return nil
	}
	d, ok := details[a.SteamID]
	if !ok {
		e.log.Warnw("No remote data for asset, skipping refresh", zap.Int64("steam_id", a.SteamID))
		return nil
	}

	*a = *e.assetFromDetails(d)
	if _, err := a.Save(); err != nil {
		return err
	}
	if !e.PreviewDownloaded(a.SteamID) {
		e.FetchPreview(a.SteamID, a.PreviewURL)
	}
	return nil
}

// LocalFiles enumerates the files under the install dir with their sizes.
// A missing dir yields the "No files" sentinel entry.
func (a *Asset) LocalFiles() map[string]int64 {
	files := map[string]int64{}
	entries, err := os.ReadDir(a.Path)
	if err != nil {
		return map[string]int64{"No files": 0}
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if entry.IsDir() {
			files[entry.Name()] = dirSize(filepath.Join(a.Path, entry.Name()))
		} else {
			files[entry.Name()] = info.Size()
		}
	}
	if len(files) == 0 {
		return map[string]int64{"No files": 0}
	}
	return files
}
