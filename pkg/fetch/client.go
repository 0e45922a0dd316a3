package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/crateview/pkg/cache"
	"github.com/matzehuels/crateview/pkg/crate"
	cverrors "github.com/matzehuels/crateview/pkg/errors"
	"github.com/matzehuels/crateview/pkg/httputil"
	"github.com/matzehuels/crateview/pkg/locator"
	"github.com/matzehuels/crateview/pkg/observability"
)

const (
	httpTimeout     = 10 * time.Second
	maxDocumentSize = 64 << 20
	acceptHeader    = "application/ld+json, application/json;q=0.9, */*;q=0.1"
)

var (
	// ErrNotFound is returned when a document doesn't exist at its location.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	Timeout      time.Duration // per request; default 10s
	Retries      int           // attempts per URL; default 3
	RetryDelay   time.Duration // initial backoff; default 1s
	MetadataFile string        // default crate.MetadataSuffix
	UserAgent    string
	RateLimit    float64 // requests per second per host; 0 disables
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Client fetches and validates metadata documents. It is safe for
// concurrent use.
type Client struct {
	http          *http.Client
	headers       map[string]string
	retries       int
	retryDelay    time.Duration
	flightTimeout time.Duration
	metadataFile  string
	limiter       *httputil.HostLimiter
	logger        *log.Logger
	group         singleflight.Group

	mu    sync.RWMutex
	texts map[string][]byte
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = httpTimeout
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.MetadataFile == "" {
		opts.MetadataFile = crate.MetadataSuffix
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	headers := map[string]string{"Accept": acceptHeader}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	return &Client{
		http:       httpClient,
		headers:    headers,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		// each attempt may take the full timeout and one capped backoff
		flightTimeout: time.Duration(opts.Retries) * (opts.Timeout + httputil.DefaultMaxDelay),
		metadataFile:  opts.MetadataFile,
		limiter:       httputil.NewHostLimiter(opts.RateLimit, 1),
		logger:        opts.Logger,
		texts:         make(map[string][]byte),
	}
}

// MetadataFile returns the filename used when a locator remembers none.
func (c *Client) MetadataFile() string { return c.metadataFile }

// Fetch retrieves and validates the document identified by loc.
func (c *Client) Fetch(ctx context.Context, loc locator.Locator) (*crate.Document, error) {
	if loc.IsZero() {
		return nil, cverrors.New(cverrors.ErrCodeInvalidInput, "empty locator")
	}

	target := loc.Document(c.metadataFile)
	var (
		data []byte
		err  error
	)
	switch {
	case loc.IsText():
		data, err = c.text(loc.Base)
	case loc.IsURL():
		if err := cverrors.ValidateURL(target); err != nil {
			return nil, err
		}
		data, err = c.fetchURL(ctx, target)
	case loc.IsArchive():
		data, err = readArchive(target)
	default:
		data, err = readFile(target)
	}
	if err != nil {
		return nil, classify(target, err)
	}

	doc, err := crate.Parse(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched document", "locator", loc.Base, "entities", len(doc.Graph))
	return doc, nil
}

// AddText registers a pasted document and returns the locator that fetches
// it. Identical text yields the identical locator.
func (c *Client) AddText(data []byte) (locator.Locator, error) {
	if len(data) == 0 {
		return locator.Locator{}, cverrors.New(cverrors.ErrCodeInvalidInput, "pasted document is empty")
	}
	key := locator.TextPrefix + cache.ShortHash(data)

	c.mu.Lock()
	c.texts[key] = append([]byte(nil), data...)
	c.mu.Unlock()
	return locator.Locator{Base: key}, nil
}

func (c *Client) text(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.texts[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// fetchURL shares one request among concurrent callers of the same URL.
// The shared request runs detached from any single caller, bounded by
// flightTimeout, so a caller that gives up does not fail the others.
func (c *Client) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	ch := c.group.DoChan(rawURL, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		policy := httputil.Policy{
			Attempts: c.retries,
			Delay:    c.retryDelay,
			OnRetry: func(attempt int, wait time.Duration, err error) {
				c.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "wait", wait, "err", err)
			},
		}
		var data []byte
		err := httputil.Do(fctx, policy, func() error {
			if err := c.limiter.Wait(fctx, rawURL); err != nil {
				return err
			}
			var err error
			data, err = c.get(fctx, rawURL)
			return err
		})
		return data, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("shared in-flight fetch", "url", rawURL)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, rawURL); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return data, nil
}

func checkStatus(resp *http.Response, rawURL string) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound, code == http.StatusGone:
		return ErrNotFound
	case code == http.StatusConflict:
		return alreadyIndexed(resp, rawURL)
	case httputil.RetryableStatus(code):
		return &httputil.RetryableError{
			Err:   fmt.Errorf("%w: status %d", ErrNetwork, code),
			After: httputil.RetryAfter(resp.Header, time.Now()),
		}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// alreadyIndexed reads the alternate locator from a 409 response: the
// Location header if present, otherwise an {"alternate": "..."} body.
func alreadyIndexed(resp *http.Response, rawURL string) error {
	alt := resp.Header.Get("Location")
	if alt == "" {
		var body struct {
			Alternate string `json:"alternate"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body) == nil {
			alt = body.Alternate
		}
	}
	if alt == "" {
		return fmt.Errorf("%w: status %d without alternate location", ErrNetwork, resp.StatusCode)
	}
	if base, err := url.Parse(rawURL); err == nil {
		if ref, err := url.Parse(alt); err == nil {
			alt = base.ResolveReference(ref).String()
		}
	}
	return &cverrors.AlreadyIndexedError{Locator: rawURL, Alternate: alt}
}

// classify maps source errors onto error codes.
func classify(target string, err error) error {
	if _, ok := cverrors.AsAlreadyIndexed(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return cverrors.Wrap(cverrors.ErrCodeNotFound, err, "no metadata at %s", target)
	case errors.Is(err, ErrNetwork):
		return cverrors.Wrap(cverrors.ErrCodeNetwork, err, "could not reach %s", target)
	default:
		return cverrors.Wrap(cverrors.ErrCodeFetch, err, "could not read %s", target)
	}
}
