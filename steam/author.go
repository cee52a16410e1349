package steam

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// Author is the denormalized profile data embedded into an asset record.
type Author struct {
	XMLName      xml.Name `xml:"profile"`
	SteamID64    int64    `xml:"steamID64"`
	SteamID      string   `xml:"steamID"`
	AvatarIcon   string   `xml:"avatarIcon"`
	AvatarMedium string   `xml:"avatarMedium"`
	AvatarFull   string   `xml:"avatarFull"`
	CustomURL    string   `xml:"customURL"`
}

// GetAuthor fetches the XML profile document for the given author id.
func (c *Client) GetAuthor(id int64) (Author, error) {
	profileURL := c.ProfilesURL + strconv.FormatInt(id, 10) + "/?xml=1"

	resp, err := c.get(c.HTTPClient, profileURL, nil)
	if err != nil {
		return Author{}, fmt.Errorf("failed to fetch author profile %d: %w", id, err)
	}
	defer resp.Body.Close()

	var author Author
	if err := xml.NewDecoder(resp.Body).Decode(&author); err != nil {
		return Author{}, fmt.Errorf("failed to decode author profile %d: %w", id, err)
	}
	if author.SteamID64 == 0 {
		author.SteamID64 = id
	}
	return author, nil
}
