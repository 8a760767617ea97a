package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/filter"
)

// Headers copied from the page request onto its data requests, so the API
// sees the same caller.
var forwardedHeaders = []string{"Cookie", "Authorization", "X-Request-Id"}

// maxResponseBytes bounds a single data response.
const maxResponseBytes = 8 << 20

// PageData is what the index page is rendered with.
type PageData struct {
	Entries []*domain.EntryWithTags `json:"entries"`
	Tags    []*domain.Tag           `json:"tags"`
	// Name and SelectedTags echo the page's ?name= and ?tags= filters.
	Name         string   `json:"name"`
	SelectedTags []string `json:"selectedTags"`
	// Deferred is set when nothing was loaded on the server.
	Deferred bool `json:"deferred"`
}

// LoaderOptions configures NewDataLoader.
type LoaderOptions struct {
	Strategy Strategy
	// DevProxyURL is the API base for StrategyDevProxy.
	DevProxyURL string
	// PublicURL is the server's own base URL, used by StrategyFetch. The
	// page request's Host header is never trusted as a fetch target.
	PublicURL string
	// HTTPClient serves StrategyDevProxy and StrategyFetch. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DataLoader fetches the entries and tags a page needs.
type DataLoader struct {
	strategy Strategy
	devProxy *url.URL
	public   *url.URL
	client   *http.Client
	logger   *slog.Logger
}

// NewDataLoader validates opts and builds a loader.
func NewDataLoader(opts LoaderOptions) (*DataLoader, error) {
	l := &DataLoader{
		strategy: opts.Strategy,
		client:   opts.HTTPClient,
		logger:   opts.Logger,
	}
	if l.client == nil {
		l.client = http.DefaultClient
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}

	switch opts.Strategy {
	case StrategyDevProxy:
		u, err := parseBaseURL(opts.DevProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid dev proxy url: %w", err)
		}
		l.devProxy = u
	case StrategyFetch:
		u, err := parseBaseURL(opts.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("invalid public url: %w", err)
		}
		l.public = u
	}
	return l, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return u, nil
}

// Strategy returns the strategy the loader was built with.
func (l *DataLoader) Strategy() Strategy { return l.strategy }

// Load fetches the page data for r. edgeClient is the in-process client
// handed over by the edge router; only StrategyInProcess uses it. The
// entries and tags calls run concurrently and fail together.
func (l *DataLoader) Load(ctx context.Context, r *http.Request, edgeClient *http.Client) (*PageData, error) {
	q := r.URL.Query()
	data := &PageData{
		Entries:      []*domain.EntryWithTags{},
		Tags:         []*domain.Tag{},
		Name:         q.Get("name"),
		SelectedTags: filter.ParseTags(q.Get("tags")),
	}
	if data.SelectedTags == nil {
		data.SelectedTags = []string{}
	}

	var (
		base   *url.URL
		client *http.Client
	)
	switch l.strategy {
	case StrategyDeferred:
		data.Deferred = true
		return data, nil
	case StrategyDevProxy:
		base, client = l.devProxy, l.client
	case StrategyInProcess:
		if edgeClient == nil {
			return nil, errors.New("in-process client unavailable")
		}
		base, client = inProcessBase(r), edgeClient
	default:
		base, client = l.public, l.client
	}

	entriesQuery := url.Values{}
	if data.Name != "" {
		entriesQuery.Set("name", data.Name)
	}
	if len(data.SelectedTags) > 0 {
		entriesQuery.Set("tags", strings.Join(data.SelectedTags, ","))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var body struct {
			Entries []*domain.EntryWithTags `json:"entries"`
		}
		if err := l.get(gctx, client, r, base, "/api/entry", entriesQuery, &body); err != nil {
			return err
		}
		if body.Entries != nil {
			data.Entries = body.Entries
		}
		return nil
	})
	g.Go(func() error {
		var body struct {
			Tags []*domain.Tag `json:"tags"`
		}
		if err := l.get(gctx, client, r, base, "/api/tag", nil, &body); err != nil {
			return err
		}
		if body.Tags != nil {
			data.Tags = body.Tags
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (l *DataLoader) get(ctx context.Context, client *http.Client, page *http.Request, base *url.URL, path string, query url.Values, out any) error {
	u := base.JoinPath(path)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	for _, h := range forwardedHeaders {
		if v := page.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	l.logger.Debug("page data loaded", "path", path, "strategy", l.strategy.String())
	return nil
}

// inProcessBase addresses in-process calls. The edge client answers every
// API path itself, so the host only fills in the API request's Host field.
func inProcessBase(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: r.Host}
}
