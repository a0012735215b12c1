package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultGraphBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// GraphOptions tunes the Graph transport. Zero values pick defaults; retries
// are off unless MaxRetries is set. Creates are retried on 429 only.
type GraphOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// GraphClient implements Client over the Graph list-items API. Sites are
// addressed as "host:/server/relative/path" and resolved to site ids once.
type GraphClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	mu    sync.RWMutex
	sites map[string]string
}

func NewGraphClient(token string, opts GraphOptions) *GraphClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GraphClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		maxDelay:   opts.MaxDelay,
		sites:      make(map[string]string),
	}
}

// GraphFactory returns a Factory building GraphClients with opts.
func GraphFactory(opts GraphOptions) Factory {
	return func(token string) (Client, error) {
		if strings.TrimSpace(token) == "" {
			return nil, ErrUnauthorized
		}
		return NewGraphClient(token, opts), nil
	}
}

type graphSite struct {
	ID string `json:"id"`
}

type graphItem struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type graphPage struct {
	Value    []graphItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

func (c *GraphClient) Resolve(ctx context.Context, refs ...CollectionRef) error {
	for _, ref := range refs {
		if _, ok := c.siteID(ref.Site); ok {
			continue
		}
		var site graphSite
		if err := c.doJSON(ctx, http.MethodGet, "/sites/"+ref.Site, nil, &site); err != nil {
			return fmt.Errorf("resolve site %s: %w", ref.Site, err)
		}
		if site.ID == "" {
			return fmt.Errorf("resolve site %s: empty site id", ref.Site)
		}
		c.mu.Lock()
		c.sites[ref.Site] = site.ID
		c.mu.Unlock()
	}
	return nil
}

func (c *GraphClient) List(ctx context.Context, ref CollectionRef) ([]Record, error) {
	base, err := c.itemsPath(ref)
	if err != nil {
		return nil, err
	}

	var out []Record
	next := base + "?expand=fields"
	for next != "" {
		var page graphPage
		if err := c.doJSON(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", ref, err)
		}
		for _, item := range page.Value {
			out = append(out, item.record())
		}
		next = page.NextLink
	}
	return out, nil
}

func (c *GraphClient) Create(ctx context.Context, ref CollectionRef, fields Record) (Record, error) {
	base, err := c.itemsPath(ref)
	if err != nil {
		return nil, err
	}
	var item graphItem
	body := map[string]any{"fields": map[string]any(fields)}
	if err := c.doJSON(ctx, http.MethodPost, base, body, &item); err != nil {
		return nil, fmt.Errorf("create in %s: %w", ref, err)
	}
	return item.record(), nil
}

func (c *GraphClient) Update(ctx context.Context, ref CollectionRef, id string, fields Record) error {
	base, err := c.itemsPath(ref)
	if err != nil {
		return err
	}
	path := base + "/" + url.PathEscape(id) + "/fields"
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]any(fields), nil); err != nil {
		return fmt.Errorf("update %s in %s: %w", id, ref, err)
	}
	return nil
}

func (c *GraphClient) Delete(ctx context.Context, ref CollectionRef, id string) error {
	base, err := c.itemsPath(ref)
	if err != nil {
		return err
	}
	if err := c.doJSON(ctx, http.MethodDelete, base+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete %s in %s: %w", id, ref, err)
	}
	return nil
}

func (i graphItem) record() Record {
	r := make(Record, len(i.Fields)+1)
	r["id"] = i.ID
	for k, v := range i.Fields {
		r[k] = v
	}
	return r
}

func (c *GraphClient) siteID(site string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.sites[site]
	return id, ok
}

func (c *GraphClient) itemsPath(ref CollectionRef) (string, error) {
	id, ok := c.siteID(ref.Site)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotResolved, ref)
	}
	return "/sites/" + id + "/lists/" + url.PathEscape(ref.List) + "/items", nil
}

func (c *GraphClient) doJSON(ctx context.Context, method, requestPath string, body any, out any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	target := requestPath
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + requestPath
	}

	// A failed POST may still have created the item, so only throttling
	// responses are retried for it.
	idempotent := method != http.MethodPost

	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("client-request-id", uuid.NewString())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if idempotent && attempt < c.maxRetries && ctx.Err() == nil {
				if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(payload) == 0 {
				return nil
			}
			dec := json.NewDecoder(bytes.NewReader(payload))
			dec.UseNumber()
			return dec.Decode(out)
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests || (idempotent && resp.StatusCode >= 500)
		if retryable && attempt < c.maxRetries {
			if waitErr := waitWithContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		var errPayload struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(payload, &errPayload)
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Code:       errPayload.Error.Code,
			Message:    errPayload.Error.Message,
		}
	}
}

func (c *GraphClient) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	maxDelay := c.maxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, maxDelay)
	}
	delay := c.baseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return min(delay, maxDelay)
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := time.Parse(time.RFC1123, header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsAuthError reports whether err means the token was rejected.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
