// Package ingest pulls real estate news from RSS and JSON feeds for the
// article suggestions shown while writing a digest.
//
// Ingest never fails from the caller's point of view: feed errors are logged
// and dropped, and when nothing usable comes back the fixed mock list is served.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/moestate/newsdesk/internal/config"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/metrics"
)

// Feed types.
const (
	FeedRSS  = "rss"
	FeedJSON = "json"
)

// Origins reported in Result.
const (
	OriginFeeds = "feeds"
	OriginMock  = "mock"
)

// maxFeedBytes caps a single feed response.
const maxFeedBytes = 2 << 20

// maxParallelFeeds bounds concurrent feed requests.
const maxParallelFeeds = 4

// Article is a news item suggested for a digest.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Excerpt     string `json:"excerpt,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// DigestArticle converts a to an attachable digest article.
func (a Article) DigestArticle() digest.Article {
	return digest.Article{
		ID:          a.ID,
		Title:       a.Title,
		Source:      a.Source,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
		Excerpt:     a.Excerpt,
		Type:        digest.ArticleNews,
	}
}

// Result is one ingest pass.
type Result struct {
	Articles []Article `json:"articles"`
	Origin   string    `json:"-"`
}

// Service fetches the configured feeds.
type Service struct {
	feeds   []config.FeedConfig
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a Service. A nil client uses http.DefaultClient and a nil logger discards.
// An empty feed list always serves the mock articles.
func NewService(feeds []config.FeedConfig, timeout time.Duration, client *http.Client, logger *zap.Logger, m *metrics.Metrics) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		feeds:   feeds,
		timeout: timeout,
		client:  client,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Fetch reads every feed concurrently and returns their articles newest first.
func (s *Service) Fetch(ctx context.Context) Result {
	now := s.now()
	articles := s.fetchAll(ctx, now)

	origin := OriginFeeds
	if len(articles) == 0 {
		origin = OriginMock
		articles = MockArticles(now)
	}
	s.metrics.IngestServed(origin, len(articles))
	return Result{Articles: articles, Origin: origin}
}

func (s *Service) fetchAll(ctx context.Context, now time.Time) []Article {
	if len(s.feeds) == 0 {
		return nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	perFeed := make([][]Article, len(s.feeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFeeds)
	for i, feed := range s.feeds {
		g.Go(func() error {
			articles, err := s.fetchFeed(gctx, feed, now)
			if err != nil {
				s.logger.Warn("feed fetch failed",
					zap.String("feed", feed.ID),
					zap.String("url", feed.URL),
					zap.Error(err))
				return nil
			}
			perFeed[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	var all []Article
	for _, a := range perFeed {
		all = append(all, a...)
	}
	sortNewestFirst(all)
	return all
}

func (s *Service) fetchFeed(ctx context.Context, feed config.FeedConfig, now time.Time) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "newsdesk/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch feed.Type {
	case FeedRSS, "":
		return parseFeed(body, feed.URL, now)
	case FeedJSON:
		return parseJSON(body, feed.URL, now)
	default:
		return nil, fmt.Errorf("unknown feed type %q", feed.Type)
	}
}

// sortNewestFirst orders by publishedAt descending. Unparseable dates sort last.
func sortNewestFirst(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return digest.ParseTimestamp(articles[i].PublishedAt).After(digest.ParseTimestamp(articles[j].PublishedAt))
	})
}
