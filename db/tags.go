package db

import (
	"fmt"
)

// GetOrCreateTag returns the tag with the given name, creating it on first
// observation.
func (s *Store) GetOrCreateTag(name string) (Tag, error) {
	var tag Tag
	if err := s.db.Where(Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
		return Tag{}, fmt.Errorf("failed to get or create tag %q: %w", name, err)
	}
	return tag, nil
}

// ListTags returns every tag name in the registry.
func (s *Store) ListTags() ([]string, error) {
	var names []string
	if err := s.db.Model(&Tag{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return names, nil
}

// InsertTags creates the given tags, skipping names that already exist.
func (s *Store) InsertTags(names []string) error {
	for _, name := range names {
		if _, err := s.GetOrCreateTag(name); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTags removes the given tags and their asset links.
func (s *Store) DeleteTags(names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	var ids []uint
	if err := s.db.Model(&Tag{}).Where("name IN ?", names).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to resolve tags: %w", err)
	}
	if len(ids) > 0 {
		if err := s.db.Exec("DELETE FROM asset_tags WHERE tag_id IN ?", ids).Error; err != nil {
			return 0, fmt.Errorf("failed to delete tag links: %w", err)
		}
	}
	res := s.db.Delete(&Tag{}, "name IN ?", names)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountAssetsWithTag counts catalog records carrying the given tag.
func (s *Store) CountAssetsWithTag(name string) (int64, error) {
	return s.CountAssets(Filter{Tag: name})
}
