// Package workshop implements the reconciliation-and-acquisition engine:
// diffing the remote favorites, the persisted catalog and the installed
// directories, and downloading item payloads and previews.
package workshop

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"workshop-sync/config"
	"workshop-sync/db"
	"workshop-sync/steam"
)

const (
	// KindAsset and KindMod are the two mutually exclusive classifications,
	// derived from the tag set.
	KindAsset = "asset"
	KindMod   = "mod"

	// TagMod selects the mod classification; TagNone is the sentinel label
	// standing in for an empty tag set.
	TagMod  = "Mod"
	TagNone = "No tags"
)

// Paths are the local directories the engine mutates.
type Paths struct {
	Assets   string
	Mods     string
	Previews string
}

// rootFor maps a classification to its extraction root.
func (p Paths) rootFor(kind string) string {
	if kind == KindMod {
		return p.Mods
	}
	return p.Assets
}

// assetDir and modDir are the two candidate install locations for an id.
func (p Paths) assetDir(id int64) string { return filepath.Join(p.Assets, strconv.FormatInt(id, 10)) }
func (p Paths) modDir(id int64) string   { return filepath.Join(p.Mods, strconv.FormatInt(id, 10)) }

// Store is the slice of the catalog store the engine depends on.
type Store interface {
	GetAsset(id int64) (*db.Asset, error)
	ListAssets(f db.Filter, skip, limit int) ([]db.Asset, error)
	CountAssets(f db.Filter) (int64, error)
	KnownIDs() ([]int64, error)
	UpsertAsset(a *db.Asset) (bool, error)
	MarkInstalled(id int64, at time.Time) error
	FlagUpdates(remoteUpdated map[int64]time.Time) (int64, error)
	DeleteAssets(ids []int64) (int64, error)
	DeleteAllAssets() (int64, error)
	ListTags() ([]string, error)
	InsertTags(names []string) error
	DeleteTags(names []string) (int64, error)
	CountAssetsWithTag(name string) (int64, error)
}

// Remote is the slice of the Steam client the engine depends on.
type Remote interface {
	ListFavorites() (map[int64]struct{}, error)
	FetchDetails(ids []int64) (map[int64]steam.Details, error)
	GetAuthor(id int64) (steam.Author, error)
	ListWorkshopTags() ([]string, error)
}

// Progress is one observable step of a long-running engine operation.
type Progress struct {
	Type    string // "plan", "deleted", "saved", "skipped", "download", "failed"
	SteamID int64
	Name    string
	Message string
}

// Engine owns the reconciliation passes and payload acquisition. Construct
// it once per process with NewEngine.
type Engine struct {
	store    Store
	remote   Remote
	paths    Paths
	mirrors  []string
	workers  int
	probe    *http.Client // mirror probes and preview downloads
	fetch    *http.Client // payload downloads
	log      *zap.SugaredLogger
	progress func(Progress)
}

// SetProgress installs an observer for long-running operations. The callback
// may be invoked from multiple goroutines.
func (e *Engine) SetProgress(fn func(Progress)) { e.progress = fn }

func (e *Engine) emit(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}

// NewEngine wires the engine from configuration and injected collaborators.
func NewEngine(cfg config.Config, store Store, remote Remote, log *zap.SugaredLogger) *Engine {
	return &Engine{
		store:  store,
		remote: remote,
		paths: Paths{
			Assets:   cfg.AssetsPath,
			Mods:     cfg.ModsPath,
			Previews: cfg.PreviewsPath,
		},
		mirrors: defaultMirrors(),
		workers: cfg.Workers,
		probe:   &http.Client{Timeout: cfg.RequestTimeout()},
		fetch:   &http.Client{Timeout: cfg.DownloadTimeout()},
		log:     log,
	}
}
