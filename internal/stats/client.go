package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Client looks up player, team and game data from the upstream stats API.
// Every upstream call is cache-checked first and budget-gated second.
type Client struct {
	httpClient *http.Client
	host       string
	apiKey     string
	budget     *Budget
	cache      *Cache
	log        *logrus.Logger
}

// NewClient wires a stats Client. cache may be nil to disable caching.
func NewClient(host, apiKey string, budget *Budget, cache *Cache, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		host:       host,
		apiKey:     apiKey,
		budget:     budget,
		cache:      cache,
		log:        log,
	}
}

// PlayerSummary returns the raw upstream JSON for a player.
func (c *Client) PlayerSummary(ctx context.Context, playerID string) (json.RawMessage, error) {
	return c.get(ctx, "/players/"+url.PathEscape(playerID), nil)
}

// TeamRoster returns the raw upstream JSON for a team roster.
func (c *Client) TeamRoster(ctx context.Context, teamID string) (json.RawMessage, error) {
	return c.get(ctx, "/teams/"+url.PathEscape(teamID)+"/roster", nil)
}

// GamesByDate returns the raw upstream JSON for games on date (YYYYMMDD).
func (c *Client) GamesByDate(ctx context.Context, date string) (json.RawMessage, error) {
	return c.get(ctx, "/games", url.Values{"date": {date}})
}

// Remaining reports the call budget left this month.
func (c *Client) Remaining() int {
	return c.budget.Remaining()
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	cacheKey := path
	if len(params) > 0 {
		cacheKey += "?" + params.Encode()
	}

	if c.cache != nil {
		if payload, ok, err := c.cache.Get(ctx, cacheKey); err != nil {
			c.log.WithError(err).WithField("key", cacheKey).Warn("stats cache read failed")
		} else if ok {
			return json.RawMessage(payload), nil
		}
	}

	if err := c.budget.Allow(); err != nil {
		return nil, err
	}

	u := url.URL{Scheme: "https", Host: c.host, Path: path, RawQuery: params.Encode()}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats request %s: unexpected status %d", path, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, cacheKey, string(body)); err != nil {
			c.log.WithError(err).WithField("key", cacheKey).Warn("stats cache write failed")
		}
	}

	c.log.WithFields(logrus.Fields{
		"path":      path,
		"remaining": c.budget.Remaining(),
	}).Info("stats api call")

	return json.RawMessage(body), nil
}
