package steam

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// ListFavorites pages through the user's favorites listing and collects the
// workshop ids found on each page. The listing signals end-of-results with an
// informational block instead of item markers. Any transport error aborts the
// whole listing: callers must not confuse a failed listing with an empty
// favorites set.
func (c *Client) ListFavorites() (map[int64]struct{}, error) {
	if c.FavoritesURL == "" {
		return nil, fmt.Errorf("FAVORITES_URL is not configured")
	}

	ids := make(map[int64]struct{})
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("browsefilter", "myfavorites")
		params.Set("sortmethod", "alpha")
		params.Set("section", "items")
		params.Set("appid", strconv.Itoa(c.AppID))
		params.Set("p", strconv.Itoa(page))
		params.Set("numperpage", strconv.Itoa(c.PerPage))

		resp, err := c.get(c.HTTPClient, c.FavoritesURL, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list favorites page %d: %w", page, err)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse favorites page %d: %w", page, err)
		}

		if doc.Find("div.inventory_msg_content").Length() > 0 {
			break
		}

		found := 0
		doc.Find("div.workshopItem a[data-publishedfileid]").Each(func(_ int, sel *goquery.Selection) {
			raw, ok := sel.Attr("data-publishedfileid")
			if !ok {
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return
			}
			ids[id] = struct{}{}
			found++
		})

		// A page with neither items nor the end marker means the listing
		// layout changed; stop rather than loop forever.
		if found == 0 {
			break
		}
	}

	return ids, nil
}
