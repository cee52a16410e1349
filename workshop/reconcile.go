package workshop

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workshop-sync/db"
	"workshop-sync/steam"
)

// Result summarizes one reconciliation run.
type Result struct {
	Deleted    int
	Updated    int
	Inserted   int
	FreedBytes int64
	NewIDs     []int64
}

// Reconcile brings the catalog and the install dirs in line with the remote
// favorites list. Items gone from the favorites are deleted, items already
// known are refreshed, items new to the list are inserted. A failure to
// list the favorites aborts the run before anything is touched.
func (e *Engine) Reconcile() (Result, error) {
	var res Result

	remote, err := e.remote.ListFavorites()
	if err != nil {
		return res, err
	}
	known, err := e.store.KnownIDs()
	if err != nil {
		return res, err
	}
	local := LocalIDs(e.paths.Assets, e.paths.Mods)

	knownSet := make(map[int64]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	var toDelete, toUpdate, toInsert []int64
	for id := range local {
		if _, ok := remote[id]; !ok {
			toDelete = append(toDelete, id)
			delete(knownSet, id)
		}
	}
	for id := range knownSet {
		if _, ok := remote[id]; ok {
			toUpdate = append(toUpdate, id)
		} else {
			toDelete = append(toDelete, id)
		}
	}
	for id := range remote {
		if _, ok := knownSet[id]; !ok {
			toInsert = append(toInsert, id)
		}
	}
	sort.Slice(toDelete, func(i, j int) bool { return toDelete[i] < toDelete[j] })
	sort.Slice(toUpdate, func(i, j int) bool { return toUpdate[i] < toUpdate[j] })
	sort.Slice(toInsert, func(i, j int) bool { return toInsert[i] < toInsert[j] })

	e.log.Infow("Reconciliation plan",
		zap.Int("delete", len(toDelete)),
		zap.Int("update", len(toUpdate)),
		zap.Int("insert", len(toInsert)),
	)
	e.emit(Progress{Type: "plan", Message: fmt.Sprintf(
		"%d to delete, %d to update, %d to insert",
		len(toDelete), len(toUpdate), len(toInsert),
	)})

	res.Deleted, res.FreedBytes = e.deletePass(toDelete)
	res.Updated = e.refreshPass(toUpdate, false)
	res.Inserted = e.refreshPass(toInsert, true)
	res.NewIDs = toInsert
	return res, nil
}

// deletePass removes catalog records, previews and install dirs for the
// ids. Returns the number of records removed and the disk space released.
func (e *Engine) deletePass(ids []int64) (int, int64) {
	if len(ids) == 0 {
		return 0, 0
	}

	deleted, err := e.store.DeleteAssets(ids)
	if err != nil {
		e.log.Errorw("Failed to delete catalog records", zap.Error(err))
	}

	var freed int64
	for _, id := range ids {
		for _, preview := range previewFilesFor(e.paths.Previews, id) {
			if err := os.Remove(preview); err != nil {
				e.log.Warnw("Failed to delete preview", zap.String("path", preview), zap.Error(err))
			}
		}
		for _, dir := range []string{e.paths.assetDir(id), e.paths.modDir(id)} {
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			size := dirSize(dir)
			if e.removeDirectory(dir) {
				freed += size
			}
		}
		e.emit(Progress{Type: "deleted", SteamID: id})
	}
	return int(deleted), freed
}

// refreshPass fetches metadata for the ids in one batched call and persists
// each item concurrently. Items the remote no longer reports are logged and
// skipped; a batch failure degrades to skipping the whole pass.
func (e *Engine) refreshPass(ids []int64, insert bool) int {
	if len(ids) == 0 {
		return 0
	}

	details, err := e.remote.FetchDetails(ids)
	if err != nil {
		e.log.Errorw("Failed to fetch metadata batch", zap.Error(err))
		details = map[int64]steam.Details{}
	}

	var done atomic.Int64
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, id := range ids {
		d, ok := details[id]
		if !ok {
			e.log.Warnw("No remote data for asset, skipping", zap.Int64("steam_id", id))
			e.emit(Progress{Type: "skipped", SteamID: id})
			continue
		}
		g.Go(func() error {
			a := e.assetFromDetails(d)
			if _, err := a.Save(); err != nil {
				e.log.Errorw("Failed to save asset", zap.Int64("steam_id", id), zap.Error(err))
				e.emit(Progress{Type: "failed", SteamID: id, Name: a.Name, Message: err.Error()})
				return nil
			}
			if !e.PreviewDownloaded(id) {
				e.FetchPreview(id, a.PreviewURL)
			}
			done.Add(1)
			e.emit(Progress{Type: "saved", SteamID: id, Name: a.Name})
			return nil
		})
	}
	g.Wait()

	verb := "Updated"
	if insert {
		verb = "Inserted"
	}
	e.log.Infow(verb+" assets", zap.Int64("count", done.Load()))
	return int(done.Load())
}

// CheckUpdates re-reads every known item's remote update time and flags the
// stale ones. Returns the number of items flagged.
func (e *Engine) CheckUpdates() (int64, error) {
	known, err := e.store.KnownIDs()
	if err != nil {
		return 0, err
	}
	if len(known) == 0 {
		return 0, nil
	}

	details, err := e.remote.FetchDetails(known)
	if err != nil {
		return 0, err
	}
	updated := make(map[int64]time.Time, len(details))
	for id, d := range details {
		updated[id] = d.TimeUpdated
	}
	return e.store.FlagUpdates(updated)
}

// InstallPending downloads every listed item that is missing on disk or
// flagged stale, making sure its preview exists first. With no explicit ids
// the whole catalog page selected by skip and limit is considered. Returns
// the ids whose download failed.
func (e *Engine) InstallPending(ids []int64, skip, limit int) []int64 {
	records, err := e.store.ListAssets(db.Filter{SteamIDs: ids}, skip, limit)
	if err != nil {
		e.log.Errorw("Failed to list assets", zap.Error(err))
		return nil
	}

	var failed []int64
	for i := range records {
		a := e.assetFromRecord(&records[i])
		if !e.PreviewDownloaded(a.SteamID) {
			e.FetchPreview(a.SteamID, a.PreviewURL)
		}
		if a.IsInstalled && !a.NeedUpdate {
			continue
		}
		e.emit(Progress{Type: "download", SteamID: a.SteamID, Name: a.Name})
		if !a.Download() {
			failed = append(failed, a.SteamID)
			e.emit(Progress{Type: "failed", SteamID: a.SteamID, Name: a.Name, Message: "download failed"})
		}
	}
	return failed
}

// WipeResult reports what a full reset removed.
type WipeResult struct {
	Records    int64
	Previews   int
	Dirs       int
	FreedBytes int64
}

// Wipe empties the catalog, the preview cache and both content roots.
func (e *Engine) Wipe() (WipeResult, error) {
	var res WipeResult

	records, err := e.store.DeleteAllAssets()
	if err != nil {
		return res, err
	}
	res.Records = records

	previews, err := os.ReadDir(e.paths.Previews)
	if err == nil {
		for _, entry := range previews {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(e.paths.Previews, entry.Name())
			if err := os.Remove(path); err != nil {
				e.log.Warnw("Failed to delete preview", zap.String("path", path), zap.Error(err))
				continue
			}
			res.Previews++
		}
	}

	for id := range LocalIDs(e.paths.Assets, e.paths.Mods) {
		for _, dir := range []string{e.paths.assetDir(id), e.paths.modDir(id)} {
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			size := dirSize(dir)
			if e.removeDirectory(dir) {
				res.Dirs++
				res.FreedBytes += size
			}
		}
	}

	e.log.Infow("Wipe complete",
		zap.Int64("records", res.Records),
		zap.Int("previews", res.Previews),
		zap.Int("dirs", res.Dirs),
		zap.Int64("freed_bytes", res.FreedBytes),
	)
	return res, nil
}

// SyncTags replaces the tag registry with the labels the workshop currently
// advertises plus the empty-set sentinel. Returns how many labels were
// added and removed.
func (e *Engine) SyncTags() (added, removed int, err error) {
	remote, err := e.remote.ListWorkshopTags()
	if err != nil {
		return 0, 0, err
	}
	remote = append(remote, TagNone)

	current, err := e.store.ListTags()
	if err != nil {
		return 0, 0, err
	}

	remoteSet := make(map[string]struct{}, len(remote))
	for _, name := range remote {
		remoteSet[name] = struct{}{}
	}
	currentSet := make(map[string]struct{}, len(current))
	for _, name := range current {
		currentSet[name] = struct{}{}
	}

	var toInsert, toDelete []string
	for name := range remoteSet {
		if _, ok := currentSet[name]; !ok {
			toInsert = append(toInsert, name)
		}
	}
	for name := range currentSet {
		if _, ok := remoteSet[name]; !ok {
			toDelete = append(toDelete, name)
		}
	}

	if len(toDelete) > 0 {
		if _, err := e.store.DeleteTags(toDelete); err != nil {
			return 0, 0, err
		}
	}
	if len(toInsert) > 0 {
		if err := e.store.InsertTags(toInsert); err != nil {
			return 0, 0, err
		}
	}
	return len(toInsert), len(toDelete), nil
}

// Statistics is a point-in-time summary of the catalog and the disk.
type Statistics struct {
	Total        int64
	Installed    int64
	NotInstalled int64
	ByTag        map[string]int64
	AssetsBytes  int64
	ModsBytes    int64
	TotalBytes   int64
}

// Stats collects catalog counts and on-disk sizes.
func (e *Engine) Stats() (Statistics, error) {
	stats := Statistics{ByTag: map[string]int64{}}

	total, err := e.store.CountAssets(db.Filter{})
	if err != nil {
		return stats, err
	}
	stats.Total = total

	installed := true
	stats.Installed, err = e.store.CountAssets(db.Filter{IsInstalled: &installed})
	if err != nil {
		return stats, err
	}
	stats.NotInstalled = total - stats.Installed

	tags, err := e.store.ListTags()
	if err != nil {
		return stats, err
	}
	for _, name := range tags {
		count, err := e.store.CountAssetsWithTag(name)
		if err != nil {
			return stats, err
		}
		stats.ByTag[name] = count
	}

	stats.AssetsBytes = dirSize(e.paths.Assets)
	stats.ModsBytes = dirSize(e.paths.Mods)
	stats.TotalBytes = stats.AssetsBytes + stats.ModsBytes
	return stats, nil
}
