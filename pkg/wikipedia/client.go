package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"

	"sightseer/pkg/config"
	"sightseer/pkg/geo"
	"sightseer/pkg/model"
)

// ErrNoResults marks a successful query without any usable page.
// Callers treat it as an empty batch, not a failure.
var ErrNoResults = errors.New("no geotagged pages near location")

// Fetcher is the subset of request.Client used here.
type Fetcher interface {
	Get(ctx context.Context, u, cacheKey string) ([]byte, error)
}

// Client queries Wikipedia geosearch for sights around a point.
type Client struct {
	request Fetcher
	cfg     config.GeodataConfig
}

// NewClient creates a new Wikipedia client.
func NewClient(r Fetcher, cfg *config.GeodataConfig) *Client {
	return &Client{request: r, cfg: *cfg}
}

// GeosearchURL builds the query for p.
func (c *Client) GeosearchURL(p geo.Point) (string, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid geodata endpoint: %w", err)
	}
	limit := strconv.Itoa(c.cfg.Limit)

	q := u.Query()
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("generator", "geosearch")
	q.Set("ggscoord", fmt.Sprintf("%s|%s", formatCoord(p.Lat), formatCoord(p.Lon)))
	q.Set("ggsradius", strconv.Itoa(int(c.cfg.Radius.Meters())))
	q.Set("ggslimit", limit)
	q.Set("prop", "coordinates|pageimages|pageterms")
	q.Set("colimit", limit)
	q.Set("piprop", "thumbnail")
	q.Set("pithumbsize", strconv.Itoa(c.cfg.ThumbSize))
	q.Set("pilimit", limit)
	q.Set("wbptterms", "description")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Geosearch returns the geotagged pages near p, ordered by geosearch rank.
// Pages without coordinates are dropped.
func (c *Client) Geosearch(ctx context.Context, p geo.Point) ([]model.Sight, error) {
	u, err := c.GeosearchURL(p)
	if err != nil {
		return nil, err
	}

	body, err := c.request.Get(ctx, u, c.cacheKey(p))
	if err != nil {
		return nil, fmt.Errorf("geosearch request: %w", err)
	}

	sights, err := parseGeosearch(body)
	if err != nil {
		return nil, err
	}
	slog.Debug("Geosearch completed", "lat", p.Lat, "lon", p.Lon, "sights", len(sights))
	if len(sights) == 0 {
		return nil, ErrNoResults
	}
	return sights, nil
}

// cacheKey rounds to ~11m so a jittery fix does not defeat the cache.
func (c *Client) cacheKey(p geo.Point) string {
	return fmt.Sprintf("wp:geo:%.4f,%.4f:r%d:l%d:t%d",
		p.Lat, p.Lon, int(c.cfg.Radius.Meters()), c.cfg.Limit, c.cfg.ThumbSize)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type geosearchResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query struct {
		Pages map[string]struct {
			PageID      int    `json:"pageid"`
			Title       string `json:"title"`
			Index       int    `json:"index"`
			Coordinates []struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"coordinates"`
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
			Terms struct {
				Description []string `json:"description"`
			} `json:"terms"`
		} `json:"pages"`
	} `json:"query"`
}

func parseGeosearch(body []byte) ([]model.Sight, error) {
	var resp geosearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("geosearch api error %s: %s", resp.Error.Code, resp.Error.Info)
	}

	sights := make([]model.Sight, 0, len(resp.Query.Pages))
	for _, page := range resp.Query.Pages {
		if len(page.Coordinates) == 0 {
			continue
		}
		s := model.Sight{
			PageID: page.PageID,
			Title:  PlainText(page.Title),
			Index:  page.Index,
			Point:  geo.Point{Lat: page.Coordinates[0].Lat, Lon: page.Coordinates[0].Lon},
		}
		if len(page.Terms.Description) > 0 {
			s.Description = PlainText(page.Terms.Description[0])
		}
		if page.Thumbnail != nil {
			s.ThumbnailURL = page.Thumbnail.Source
		}
		sights = append(sights, s)
	}

	sort.SliceStable(sights, func(i, j int) bool {
		if sights[i].Index != sights[j].Index {
			return sights[i].Index < sights[j].Index
		}
		return sights[i].PageID < sights[j].PageID
	})
	return sights, nil
}
