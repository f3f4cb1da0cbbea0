package asset

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/risekit/pkg/cache"
	"github.com/matzehuels/risekit/pkg/errors"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultFetchTTL     = cache.TTLAsset
	DefaultMaxBodyBytes = 8 << 20
)

// FetcherOptions configures a Fetcher. Zero values take the defaults.
type FetcherOptions struct {
	Client       *http.Client
	Cache        cache.Cache
	Keyer        cache.Keyer
	TTL          time.Duration
	Attempts     int
	Delay        time.Duration
	MaxBodyBytes int64
	Headers      map[string]string
	Logger       *log.Logger
}

// SetDefaults fills unset options.
func (o *FetcherOptions) SetDefaults() {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.TTL <= 0 {
		o.TTL = DefaultFetchTTL
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.Delay <= 0 {
		o.Delay = time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Fetcher downloads script and stylesheet assets over HTTP. Each URL is
// fetched once; concurrent promises for it share one signal. Transient
// failures are retried with backoff and bodies are cached.
type Fetcher struct {
	opts FetcherOptions

	mu       sync.Mutex
	inflight map[string]*Signal
	bodies   map[string][]byte
}

// NewFetcher returns a fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	opts.SetDefaults()
	return &Fetcher{
		opts:     opts,
		inflight: make(map[string]*Signal),
		bodies:   make(map[string][]byte),
	}
}

// Promise implements Service for KindScript and KindStyle assets. A failed
// URL is forgotten so that a later promise tries again.
func (f *Fetcher) Promise(ctx context.Context, a Asset) Waitable {
	if a.Kind != KindScript && a.Kind != KindStyle {
		return Rejected(errors.New(errors.ErrCodeUnsupported, "fetcher cannot load %s", a))
	}
	if err := errors.ValidateURL(a.Name); err != nil {
		return Rejected(err)
	}
	f.mu.Lock()
	if s, ok := f.inflight[a.Name]; ok {
		f.mu.Unlock()
		return s
	}
	s := NewSignal()
	f.inflight[a.Name] = s
	f.mu.Unlock()

	go func() {
		body, err := f.fetch(ctx, a.Name)
		f.mu.Lock()
		if err != nil {
			delete(f.inflight, a.Name)
		} else {
			f.bodies[a.Name] = body
		}
		f.mu.Unlock()
		if err != nil {
			f.opts.Logger.Warn("asset failed", "asset", a, "err", err)
			s.Reject(err)
			return
		}
		f.opts.Logger.Debug("asset loaded", "asset", a, "bytes", len(body))
		s.Resolve()
	}()
	return s
}

// Body returns the downloaded body of url once its promise resolved.
func (f *Fetcher) Body(url string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bodies[url]
	return b, ok
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	key := f.opts.Keyer.AssetKey(url)
	if data, ok, err := f.opts.Cache.Get(ctx, key); err == nil && ok {
		return data, nil
	}

	var body []byte
	err := cache.Retry(ctx, f.opts.Attempts, f.opts.Delay, func() error {
		var err error
		body, err = f.get(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := f.opts.Cache.Set(ctx, key, body, f.opts.TTL); err != nil {
		f.opts.Logger.Warn("cache asset", "url", url, "err", err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "asset url %q", url)
	}
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}
	resp, err := f.opts.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url))
	}
	defer resp.Body.Close()
	if err := checkStatus(url, resp.StatusCode); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
	}
	if int64(len(body)) > f.opts.MaxBodyBytes {
		return nil, errors.New(errors.ErrCodeAsset, "%s exceeds %d bytes", url, f.opts.MaxBodyBytes)
	}
	return body, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "GET %s: status %d", url, code)
	case code == http.StatusTooManyRequests:
		return cache.Retryable(errors.New(errors.ErrCodeRateLimited, "GET %s: status %d", url, code))
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, code)
	}
}

var _ Service = (*Fetcher)(nil)
