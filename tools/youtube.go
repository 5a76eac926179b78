package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type VideoResult struct {
	Title     string
	Thumbnail string
	URL       string
}

// VideoSearcher finds the most viewed recent video for a keyword.
type VideoSearcher interface {
	SearchRecent(ctx context.Context, keyword string, since time.Time) (*VideoResult, error)
}

type YouTubeSearcher struct {
	svc   *youtube.Service
	cache *cache.Cache
}

func NewYouTubeSearcher(ctx context.Context, apiKey string) (*YouTubeSearcher, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing YOUTUBE_API_KEY")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTubeSearcher{
		svc:   svc,
		cache: cache.New(6*time.Hour, 30*time.Minute),
	}, nil
}

// SearchRecent returns nil, nil when nothing matched.
func (y *YouTubeSearcher) SearchRecent(ctx context.Context, keyword string, since time.Time) (*VideoResult, error) {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if key == "" {
		return nil, nil
	}
	if v, ok := y.cache.Get(key); ok {
		return v.(*VideoResult), nil
	}

	resp, err := y.svc.Search.List([]string{"snippet"}).
		Q(keyword).
		MaxResults(1).
		Order("viewCount").
		Type("video").
		PublishedAfter(since.UTC().Format(time.RFC3339)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", keyword, err)
	}

	var out *VideoResult
	if len(resp.Items) > 0 && resp.Items[0].Id != nil && resp.Items[0].Snippet != nil {
		item := resp.Items[0]
		out = &VideoResult{
			Title: item.Snippet.Title,
			URL:   "https://www.youtube.com/watch?v=" + item.Id.VideoId,
		}
		if t := item.Snippet.Thumbnails; t != nil && t.High != nil {
			out.Thumbnail = t.High.Url
		}
	}
	y.cache.Set(key, out, cache.DefaultExpiration)
	return out, nil
}
