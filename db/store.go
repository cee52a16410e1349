package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows asset listing and counting. Zero-valued fields are ignored;
// the boolean filters are pointers so "unset" and "false" stay distinct.
type Filter struct {
	SteamIDs    []int64
	Tag         string
	NeedUpdate  *bool
	IsInstalled *bool
}

func (s *Store) assetQuery(f Filter) *gorm.DB {
	tx := s.db.Model(&Asset{})
	if len(f.SteamIDs) > 0 {
		tx = tx.Where("assets.steam_id IN ?", f.SteamIDs)
	}
	if f.Tag != "" {
		tx = tx.Joins("JOIN asset_tags ON asset_tags.asset_steam_id = assets.steam_id").
			Joins("JOIN tags ON tags.id = asset_tags.tag_id").
			Where("tags.name = ?", f.Tag)
	}
	if f.NeedUpdate != nil {
		tx = tx.Where("assets.need_update = ?", *f.NeedUpdate)
	}
	if f.IsInstalled != nil {
		tx = tx.Where("assets.is_installed = ?", *f.IsInstalled)
	}
	return tx
}

// GetAsset returns the record for id, or nil when the catalog has no entry.
func (s *Store) GetAsset(id int64) (*Asset, error) {
	var asset Asset
	err := s.db.Preload("Tags").First(&asset, "steam_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset %d: %w", id, err)
	}
	return &asset, nil
}

// ListAssets returns records matching the filter with skip/limit pagination.
// A limit of 0 means no limit.
func (s *Store) ListAssets(f Filter, skip, limit int) ([]Asset, error) {
	if limit <= 0 {
		limit = -1
	}
	var assets []Asset
	err := s.assetQuery(f).Preload("Tags").
		Order("assets.steam_id").
		Offset(skip).Limit(limit).
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// CountAssets counts records matching the filter.
func (s *Store) CountAssets(f Filter) (int64, error) {
	var count int64
	if err := s.assetQuery(f).Distinct("assets.steam_id").Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}

// KnownIDs returns every id the catalog has a record for.
func (s *Store) KnownIDs() ([]int64, error) {
	var ids []int64
	if err := s.db.Model(&Asset{}).Order("steam_id").Pluck("steam_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list catalog ids: %w", err)
	}
	return ids, nil
}

// UpsertAsset writes the full record keyed by SteamID, replacing the tag
// association. Reports whether a row was written.
func (s *Store) UpsertAsset(a *Asset) (bool, error) {
	tags := a.Tags
	a.Tags = nil

	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "steam_id"}},
		UpdateAll: true,
	}).Create(a)
	if res.Error != nil {
		return false, fmt.Errorf("failed to upsert asset %d: %w", a.SteamID, res.Error)
	}

	resolved := make([]Tag, 0, len(tags))
	for _, t := range tags {
		tag, err := s.GetOrCreateTag(t.Name)
		if err != nil {
			return false, err
		}
		resolved = append(resolved, tag)
	}
	if err := s.db.Model(a).Association("Tags").Replace(resolved); err != nil {
		return false, fmt.Errorf("failed to set tags for asset %d: %w", a.SteamID, err)
	}
	a.Tags = resolved

	return res.RowsAffected > 0, nil
}

// MarkInstalled records a successful payload install in one write.
func (s *Store) MarkInstalled(id int64, at time.Time) error {
	err := s.db.Model(&Asset{}).Where("steam_id = ?", id).Updates(map[string]any{
		"is_installed": true,
		"time_local":   at,
		"need_update":  false,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to mark asset %d installed: %w", id, err)
	}
	return nil
}

// FlagUpdates bulk-applies remote update timestamps: each asset gets its
// time_updated replaced and need_update recomputed from the staleness rule
// (installed and local time older than the remote time).
func (s *Store) FlagUpdates(remoteUpdated map[int64]time.Time) (int64, error) {
	var flagged int64
	for id, updated := range remoteUpdated {
		var asset Asset
		err := s.db.Select("steam_id", "time_local", "is_installed").
			First(&asset, "steam_id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return flagged, fmt.Errorf("failed to read asset %d: %w", id, err)
		}

		needUpdate := asset.IsInstalled && asset.TimeLocal.Before(updated)
		err = s.db.Model(&Asset{}).Where("steam_id = ?", id).Updates(map[string]any{
			"time_updated": updated,
			"need_update":  needUpdate,
		}).Error
		if err != nil {
			return flagged, fmt.Errorf("failed to flag asset %d: %w", id, err)
		}
		if needUpdate {
			flagged++
		}
	}
	return flagged, nil
}

// DeleteAssets removes the records (and their tag links) for the given ids.
func (s *Store) DeleteAssets(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.db.Exec("DELETE FROM asset_tags WHERE asset_steam_id IN ?", ids).Error; err != nil {
		return 0, fmt.Errorf("failed to delete tag links: %w", err)
	}
	res := s.db.Delete(&Asset{}, "steam_id IN ?", ids)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete assets: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteAllAssets wipes the whole catalog.
func (s *Store) DeleteAllAssets() (int64, error) {
	if err := s.db.Exec("DELETE FROM asset_tags").Error; err != nil {
		return 0, fmt.Errorf("failed to clear tag links: %w", err)
	}
	res := s.db.Where("1 = 1").Delete(&Asset{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear assets: %w", res.Error)
	}
	return res.RowsAffected, nil
}
