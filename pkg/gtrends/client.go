// Package gtrends is a minimal Google Trends "interest over time" client.
// It speaks the two-step widget protocol the trends web UI uses: an explore
// call that issues a widget token, then a widgetdata call that returns the
// timeline for that token.
package gtrends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL  = "https://trends.google.com"
	defaultLanguage = "fr-CA"
	defaultTimezone = 360 // minutes west of UTC, UTC-6 for Quebec
)

// Request describes one interest-over-time fetch. Timeframe uses the
// trends grammar, e.g. "today 12-m" or "today 3-m".
type Request struct {
	Keywords  []string
	Geo       string
	Timeframe string
}

// Row is one dated sample, one value per requested keyword.
type Row struct {
	Date   time.Time
	Values []float64
}

// Table is a fetched interest-over-time series: one column per requested
// keyword, rows in date order. An empty table means the provider had no
// signal for the request.
type Table struct {
	Keywords []string
	Rows     []Row
}

// Empty reports whether the table carries no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Point is one (date, value) sample extracted from a single column.
type Point struct {
	Date  time.Time
	Value float64
}

// Column extracts the series for one keyword, or false when the table does
// not carry a column for it.
func (t *Table) Column(keyword string) ([]Point, bool) {
	if t.Empty() {
		return nil, false
	}
	idx := -1
	for i, kw := range t.Keywords {
		if kw == keyword {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	points := make([]Point, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx >= len(row.Values) {
			continue
		}
		points = append(points, Point{Date: row.Date, Value: row.Values[idx]})
	}
	return points, true
}

// Client fetches interest-over-time tables from Google Trends.
type Client interface {
	InterestOverTime(ctx context.Context, req Request) (*Table, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default trends endpoint.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client. The client's cookie
// jar is replaced so the session cookie survives across calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLanguage sets the hl request parameter.
func WithLanguage(lang string) Option {
	return func(c *httpClient) {
		c.language = lang
	}
}

// WithTimezone sets the tz request parameter (minutes west of UTC).
func WithTimezone(offset int) Option {
	return func(c *httpClient) {
		c.timezone = offset
	}
}

type httpClient struct {
	baseURL  string
	language string
	timezone int
	http     *http.Client

	primeOnce sync.Once
	primeErr  error
}

// NewClient creates a Google Trends client.
func NewClient(opts ...Option) Client {
	jar, _ := cookiejar.New(nil)
	c := &httpClient{
		baseURL:  defaultBaseURL,
		language: defaultLanguage,
		timezone: defaultTimezone,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	if c.http.Jar == nil {
		c.http.Jar, _ = cookiejar.New(nil)
	}
	return c
}

// comparisonItem is one keyword entry in the explore request payload.
type comparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time  string    `json:"time"`
			Value []float64 `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// InterestOverTime fetches the interest-over-time table for the request.
// An empty table (no timeline rows) is a normal "no signal" outcome, not
// an error.
func (c *httpClient) InterestOverTime(ctx context.Context, req Request) (*Table, error) {
	if len(req.Keywords) == 0 {
		return nil, eris.New("gtrends: no keywords in request")
	}

	if err := c.prime(ctx); err != nil {
		return nil, err
	}

	token, widgetReq, err := c.explore(ctx, req)
	if err != nil {
		return nil, err
	}

	rows, err := c.multiline(ctx, token, widgetReq)
	if err != nil {
		return nil, err
	}

	return &Table{Keywords: req.Keywords, Rows: rows}, nil
}

// prime performs one GET against the trends host so the session cookie
// (NID) lands in the jar; explore calls without it are rejected.
func (c *httpClient) prime(ctx context.Context) error {
	c.primeOnce.Do(func() {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
		if err != nil {
			c.primeErr = eris.Wrap(err, "gtrends: create prime request")
			return
		}
		resp, err := c.http.Do(httpReq)
		if err != nil {
			c.primeErr = eris.Wrap(err, "gtrends: prime session")
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	})
	return c.primeErr
}

func (c *httpClient) explore(ctx context.Context, req Request) (string, json.RawMessage, error) {
	items := make([]comparisonItem, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		items = append(items, comparisonItem{Keyword: kw, Geo: req.Geo, Time: req.Timeframe})
	}
	payload, err := json.Marshal(exploreRequest{ComparisonItem: items, Property: ""})
	if err != nil {
		return "", nil, eris.Wrap(err, "gtrends: marshal explore request")
	}

	params := url.Values{}
	params.Set("hl", c.language)
	params.Set("tz", strconv.Itoa(c.timezone))
	params.Set("req", string(payload))

	body, err := c.get(ctx, "/trends/api/explore", params)
	if err != nil {
		return "", nil, err
	}

	var explore exploreResponse
	if err := json.Unmarshal(body, &explore); err != nil {
		return "", nil, eris.Wrap(err, "gtrends: decode explore response")
	}

	for _, w := range explore.Widgets {
		if w.ID == "TIMESERIES" {
			return w.Token, w.Request, nil
		}
	}
	return "", nil, eris.New("gtrends: explore response has no TIMESERIES widget")
}

func (c *httpClient) multiline(ctx context.Context, token string, widgetReq json.RawMessage) ([]Row, error) {
	params := url.Values{}
	params.Set("hl", c.language)
	params.Set("tz", strconv.Itoa(c.timezone))
	params.Set("req", string(widgetReq))
	params.Set("token", token)

	body, err := c.get(ctx, "/trends/api/widgetdata/multiline", params)
	if err != nil {
		return nil, err
	}

	var multiline multilineResponse
	if err := json.Unmarshal(body, &multiline); err != nil {
		return nil, eris.Wrap(err, "gtrends: decode multiline response")
	}

	rows := make([]Row, 0, len(multiline.Default.TimelineData))
	for _, td := range multiline.Default.TimelineData {
		secs, err := strconv.ParseInt(td.Time, 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "gtrends: parse timeline timestamp %q", td.Time)
		}
		rows = append(rows, Row{Date: time.Unix(secs, 0).UTC(), Values: td.Value})
	}
	return rows, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "gtrends: create request %s", path)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrapf(err, "gtrends: get %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "gtrends: read response %s", path)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Path: path}
	}

	return stripPrefix(body), nil
}

// StatusError reports a non-200 response from the trends API. Callers use
// the code to decide whether a request is worth retrying; Google answers
// throttled sessions with 429.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gtrends: unexpected status %d from %s", e.Code, e.Path)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.Code }

// stripPrefix removes the `)]}'` anti-JSON-hijacking prefix the trends API
// prepends to every response.
func stripPrefix(body []byte) []byte {
	if i := strings.IndexByte(string(body), '{'); i > 0 {
		return body[i:]
	}
	return body
}
