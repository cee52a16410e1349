package steam

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"workshop-sync/config"
)

// detailsBatchSize caps how many ids go into one GetPublishedFileDetails
// request; larger id sets are chunked.
const detailsBatchSize = 100

// Client handles communication with the Steam endpoints: the published-file
// metadata API, the favorites listing pages, the workshop tag page and the
// author profile documents.
type Client struct {
	APIURL       string
	FavoritesURL string
	WorkshopURL  string
	ProfilesURL  string
	UserAgent    string
	AppID        int
	PerPage      int

	// HTTPClient carries the short timeout for metadata and listing calls;
	// DownloadClient carries the long timeout for payload downloads.
	HTTPClient     *http.Client
	DownloadClient *http.Client
}

// NewClient creates a Steam client using the provided configuration.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("USERAGENT is not configured")
	}

	return &Client{
		APIURL:       cfg.SteamAPIURL,
		FavoritesURL: cfg.FavoritesURL,
		WorkshopURL:  cfg.WorkshopURL,
		ProfilesURL:  cfg.ProfilesURL,
		UserAgent:    cfg.UserAgent,
		AppID:        cfg.AppID,
		PerPage:      cfg.PerPage,
		HTTPClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		DownloadClient: &http.Client{
			Timeout: cfg.DownloadTimeout(),
		},
	}, nil
}

// get issues a GET with the client's User-Agent and fails on non-2xx status.
func (c *Client) get(client *http.Client, rawURL string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	return resp, nil
}

// Details is the normalized per-item metadata projected from the remote
// response. Timestamps arrive as unix seconds and are converted here; the
// zero time stands in for "unknown".
type Details struct {
	SteamID     int64
	Title       string
	Tags        []string
	PreviewURL  string
	FileSize    int64
	TimeCreated time.Time
	TimeUpdated time.Time
	Creator     int64
}

// Wire shapes for the published-file endpoint.
type publishedFileDetails struct {
	PublishedFileID string `json:"publishedfileid"`
	Title           string `json:"title"`
	PreviewURL      string `json:"preview_url"`
	FileSize        int64  `json:"file_size"`
	Creator         string `json:"creator"`
	TimeCreated     int64  `json:"time_created"`
	TimeUpdated     int64  `json:"time_updated"`
	Tags            []struct {
		Tag string `json:"tag"`
	} `json:"tags"`
}

type detailsResponse struct {
	Response struct {
		PublishedFileDetails []publishedFileDetails `json:"publishedfiledetails"`
	} `json:"response"`
}

// FetchDetails retrieves metadata for the given ids, chunked as needed.
// Items whose response entry carries no usable id are dropped; results are
// keyed by the remote-confirmed id. Callers must treat ids absent from the
// map as "could not hydrate", never as "gone".
func (c *Client) FetchDetails(ids []int64) (map[int64]Details, error) {
	result := make(map[int64]Details, len(ids))
	for start := 0; start < len(ids); start += detailsBatchSize {
		end := start + detailsBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := c.fetchDetailsBatch(ids[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *Client) fetchDetailsBatch(ids []int64, out map[int64]Details) error {
	form := url.Values{}
	form.Set("itemcount", strconv.Itoa(len(ids)))
	for i, id := range ids {
		form.Set(fmt.Sprintf("publishedfileids[%d]", i), strconv.FormatInt(id, 10))
	}
	form.Set("format", "json")

	req, err := http.NewRequest(http.MethodPost, c.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.DownloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch published file details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("published file details request failed: status %d", resp.StatusCode)
	}

	var parsed detailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode published file details: %w", err)
	}

	for _, item := range parsed.Response.PublishedFileDetails {
		id, err := strconv.ParseInt(item.PublishedFileID, 10, 64)
		if err != nil || id == 0 {
			// No canonical id, nothing to key the record by.
			continue
		}
		tags := make([]string, 0, len(item.Tags))
		for _, t := range item.Tags {
			if t.Tag != "" {
				tags = append(tags, t.Tag)
			}
		}
		creator, _ := strconv.ParseInt(item.Creator, 10, 64)
		out[id] = Details{
			SteamID:     id,
			Title:       item.Title,
			Tags:        tags,
			PreviewURL:  item.PreviewURL,
			FileSize:    item.FileSize,
			TimeCreated: unixTime(item.TimeCreated),
			TimeUpdated: unixTime(item.TimeUpdated),
			Creator:     creator,
		}
	}
	return nil
}

// unixTime maps the remote numeric encoding onto time.Time, keeping the
// zero time as the "unknown" sentinel.
func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
