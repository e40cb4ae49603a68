package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"broadcastmusic/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "search:"

var (
	ErrEmptyQuery     = errors.New("query is required")
	ErrNoResults      = errors.New("no results found")
	ErrProviderFailed = errors.New("song provider request failed")
)

// Song is the public shape of one search hit.
type Song struct {
	ID           string `json:"id"            example:"Ad3Ffxkd"`
	Title        string `json:"title"         example:"Song A"`
	MP3URL       string `json:"mp3_url"       example:"https://cdn.example/a_320.mp4"`
	ThumbnailURL string `json:"thumbnail_url" example:"https://cdn.example/a_500x500.jpg"`
	Artist       string `json:"artist"        example:"Artist A"`
} // @name Song

type Options struct {
	BaseURL      string
	AudioQuality string // preferred downloadUrl variant, e.g. "320kbps"
	ImageQuality string // preferred image variant, e.g. "500x500"
	Limit        int
	Timeout      time.Duration
	CacheTTL     time.Duration
}

type ISearchService interface {
	Search(ctx context.Context, query string) ([]Song, error)
}

type searchService struct {
	httpClient *http.Client
	rdc        *redis.Client // nil disables the cache
	opts       Options
	sfGroup    singleflight.Group
}

var _ ISearchService = (*searchService)(nil)

func NewSearchService(rdc *redis.Client, opts Options) ISearchService {
	return &searchService{
		httpClient: &http.Client{Timeout: opts.Timeout},
		rdc:        rdc,
		opts:       opts,
	}
}

// Search looks the query up in the cache, then asks the provider.
// Concurrent misses for the same query share one provider call, which
// keeps running for the others when one caller gives up.
func (svc *searchService) Search(ctx context.Context, query string) ([]Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	key := cacheKeyPrefix + strings.ToLower(query)

	if songs, ok := svc.cached(ctx, key); ok {
		metrics.SearchRequests.WithLabelValues("hit").Inc()
		return songs, nil
	}

	// outlives the caller that starts it; bounded by the client timeout
	ch := svc.sfGroup.DoChan(key, func() (any, error) {
		return svc.fetch(context.WithoutCancel(ctx), query)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.SearchRequests.WithLabelValues("cancelled").Inc()
		return nil, ctx.Err()
	}
	if res.Err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, res.Err
	}
	songs := res.Val.([]Song)
	metrics.SearchRequests.WithLabelValues("miss").Inc()

	svc.store(ctx, key, songs)
	return songs, nil
}

// ─────────────────────────────── provider ────────────────────────────────────

type variant struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

type providerResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Results []struct {
			ID          string    `json:"id"`
			Name        string    `json:"name"`
			Image       []variant `json:"image"`
			DownloadURL []variant `json:"downloadUrl"`
			Artists     struct {
				Primary []struct {
					Name string `json:"name"`
				} `json:"primary"`
			} `json:"artists"`
		} `json:"results"`
	} `json:"data"`
}

func (svc *searchService) fetch(ctx context.Context, query string) ([]Song, error) {
	u, err := url.Parse(svc.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	q := u.Query()
	q.Set("query", query)
	if svc.opts.Limit > 0 {
		q.Set("limit", fmt.Sprint(svc.opts.Limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderFailed, resp.StatusCode)
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	if !body.Success {
		return nil, fmt.Errorf("%w: provider reported failure", ErrProviderFailed)
	}

	songs := make([]Song, 0, len(body.Data.Results))
	for _, r := range body.Data.Results {
		names := make([]string, 0, len(r.Artists.Primary))
		for _, a := range r.Artists.Primary {
			names = append(names, a.Name)
		}
		songs = append(songs, Song{
			ID:           r.ID,
			Title:        r.Name,
			MP3URL:       pickVariant(r.DownloadURL, svc.opts.AudioQuality),
			ThumbnailURL: pickVariant(r.Image, svc.opts.ImageQuality),
			Artist:       strings.Join(names, ", "),
		})
	}
	if len(songs) == 0 {
		return nil, ErrNoResults
	}
	return songs, nil
}

// pickVariant returns the URL of the wanted quality, falling back to the
// last (highest) variant the provider listed.
func pickVariant(vs []variant, want string) string {
	for _, v := range vs {
		if v.Quality == want {
			return v.URL
		}
	}
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1].URL
}

// ─────────────────────────────── cache ───────────────────────────────────────

func (svc *searchService) cached(ctx context.Context, key string) ([]Song, bool) {
	if svc.rdc == nil {
		return nil, false
	}
	raw, err := svc.rdc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("search.cache_get", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var songs []Song
	if err := json.Unmarshal(raw, &songs); err != nil {
		zap.L().Warn("search.cache_decode", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return songs, true
}

func (svc *searchService) store(ctx context.Context, key string, songs []Song) {
	if svc.rdc == nil || svc.opts.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(songs)
	if err != nil {
		return
	}
	if err := svc.rdc.Set(ctx, key, raw, svc.opts.CacheTTL).Err(); err != nil {
		zap.L().Warn("search.cache_set", zap.String("key", key), zap.Error(err))
	}
}
