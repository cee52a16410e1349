package steam

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListWorkshopTags scrapes the workshop page for its tag labels. Each label's
// text ends in a count suffix, which is stripped.
func (c *Client) ListWorkshopTags() ([]string, error) {
	resp, err := c.get(c.HTTPClient, c.WorkshopURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workshop page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workshop page: %w", err)
	}

	var tags []string
	doc.Find("label.tag_label").Each(func(_ int, sel *goquery.Selection) {
		if name := stripCountSuffix(sel.Text()); name != "" {
			tags = append(tags, name)
		}
	})
	return tags, nil
}

// stripCountSuffix drops the trailing token of a tag label, which carries the
// item count, e.g. "Tram Station (42)" -> "Tram Station".
func stripCountSuffix(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[:len(fields)-1], " ")
}
