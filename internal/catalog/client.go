package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrUpstream = errors.New("catalog upstream unavailable")

type entry struct {
	tracks    []Track
	fetchedAt time.Time
}

// Client fetches tracks per genre from the catalog service and caches them
// for ttl.
type Client struct {
	baseURL string
	http    *http.Client
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]entry
}

func NewClient(baseURL string, ttl time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]entry),
	}
}

// Fetch returns the cached tracks for genre, loading them on a miss or after
// the entry expired.
func (c *Client) Fetch(ctx context.Context, genre string) ([]Track, error) {
	key := strings.ToLower(strings.TrimSpace(genre))

	c.mu.Lock()
	e, ok := c.cache[key]
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return cloneAll(e.tracks), nil
	}
	return c.load(ctx, key)
}

// Refresh bypasses the cache.
func (c *Client) Refresh(ctx context.Context, genre string) ([]Track, error) {
	return c.load(ctx, strings.ToLower(strings.TrimSpace(genre)))
}

func (c *Client) load(ctx context.Context, genre string) ([]Track, error) {
	endpoint := c.baseURL + "/tracks"
	if genre != "" {
		endpoint += "?genre=" + url.QueryEscape(genre)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body struct {
		Tracks []Track `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}

	playable := make([]Track, 0, len(body.Tracks))
	for _, t := range body.Tracks {
		// tracks without a preview cannot be played in a round
		if t.PreviewURL == "" {
			continue
		}
		playable = append(playable, t)
	}

	c.mu.Lock()
	c.cache[genre] = entry{tracks: playable, fetchedAt: c.now()}
	c.mu.Unlock()

	log.Debug().Str("genre", genre).Int("tracks", len(playable)).Msg("catalog refreshed")
	return cloneAll(playable), nil
}

func cloneAll(in []Track) []Track {
	out := make([]Track, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
