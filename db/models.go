package db

import (
	"time"
)

// Asset is one catalog record, keyed by the remote-assigned workshop id.
// TimeLocal, IsInstalled and NeedUpdate mirror filesystem state and are
// re-derived by the workshop package on every construction; the persisted
// copy is only a snapshot for the read API.
type Asset struct {
	SteamID     int64 `gorm:"primaryKey;autoIncrement:false"`
	Name        string
	PreviewURL  string
	FileSize    int64
	TimeCreated time.Time
	TimeUpdated time.Time // Last time the item changed on the workshop
	TimeLocal   time.Time // Newest modification time under the install dir
	IsInstalled bool
	NeedUpdate  bool

	// Denormalized author profile, fetched once per hydration.
	AuthorID           int64
	AuthorHandle       string
	AuthorAvatarIcon   string
	AuthorAvatarMedium string
	AuthorAvatarFull   string
	AuthorCustomURL    string

	Tags []Tag `gorm:"many2many:asset_tags"`
}

// Tag is a classification label, unique by name.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

// TagNames flattens the association for callers that only need the labels.
func (a *Asset) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}
