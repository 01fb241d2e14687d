// Package readwise fetches the Readwise Reader document list, one page
// per call, following the server-issued pageCursor.
package readwise

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/rojanmagar2001/readsync/internal/domain"
	"github.com/rojanmagar2001/readsync/internal/ports"
)

// DefaultBaseURL is the fixed list endpoint of the Reader API.
const DefaultBaseURL = "https://readwise.io/api/v3/list/"

// maxBodyBytes caps how much of a response we are willing to read; a
// well-formed page is a few hundred KB at most.
const maxBodyBytes = 10 << 20

// ErrBadStatus marks a non-2xx response. The caller may retry the page;
// the client itself never does.
var ErrBadStatus = errors.New("readwise: bad response status")

type Client struct {
	client  ports.HTTPClient
	apiKey  string
	baseURL string
}

type Option func(*Client)

// WithBaseURL overrides the list endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New builds a client for one account. An empty API key is a
// configuration error and is rejected before any request is made.
func New(client ports.HTTPClient, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("readwise: api key must not be empty")
	}
	c := &Client{
		client:  client,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BuildRequest produces the GET for one page. A non-empty cursor is
// carried as the pageCursor query parameter; the first page omits it.
func (c *Client) BuildRequest(ctx context.Context, cursor string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if cursor != "" {
		q := u.Query()
		q.Set("pageCursor", cursor)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build list request")
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// FetchPage performs one round trip and decodes the page envelope.
// Transport and decode failures both propagate untouched.
func (c *Client) FetchPage(ctx context.Context, cursor string) (domain.Page, error) {
	req, err := c.BuildRequest(ctx, cursor)
	if err != nil {
		return domain.Page{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Page{}, errors.Wrap(err, "list request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 1<<10)
		return domain.Page{}, errors.Wrapf(ErrBadStatus, "%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return domain.Page{}, errors.Wrap(err, "read list response")
	}
	if len(body) > maxBodyBytes {
		return domain.Page{}, errors.Errorf("readwise: response body exceeds %d bytes", maxBodyBytes)
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Page{}, errors.Wrap(err, "decode list response")
	}

	page := domain.Page{Records: make([]domain.Record, 0, len(env.Results))}
	for _, w := range env.Results {
		page.Records = append(page.Records, w.record())
	}
	if env.NextPageCursor != nil {
		page.NextCursor = *env.NextPageCursor
	}
	return page, nil
}

type listEnvelope struct {
	Results        []wireRecord `json:"results"`
	NextPageCursor *string      `json:"nextPageCursor"`
}

type wireRecord struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     *string   `json:"title"`
	CreatedAt *wireTime `json:"created_at"`
}

func (w wireRecord) record() domain.Record {
	rec := domain.Record{
		ID:    w.ID,
		URL:   w.URL,
		Title: w.Title,
	}
	if w.CreatedAt != nil {
		t := w.CreatedAt.t
		rec.CreatedAt = &t
	}
	return rec
}

// wireTime accepts the two created_at encodings the API has been seen
// to emit: RFC3339 text and a Unix epoch number.
type wireTime struct {
	t time.Time
}

func (w *wireTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty created_at")
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "created_at string")
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errors.Wrap(err, "created_at timestamp")
		}
		w.t = t
		return nil
	}

	sec, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return errors.Wrap(err, "created_at epoch")
	}
	whole := math.Floor(sec)
	w.t = time.Unix(int64(whole), int64((sec-whole)*float64(time.Second))).UTC()
	return nil
}
