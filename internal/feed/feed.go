// Package feed は外部の求人APIから求人一覧を取得します。
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yourusername/jobboard/internal/common"
	"github.com/yourusername/jobboard/internal/logging"
)

// Job は Remotive 形式の求人です。
type Job struct {
	ID                        int64  `json:"id"`
	URL                       string `json:"url"`
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	CompanyLogo               string `json:"company_logo"`
	Category                  string `json:"category"`
	JobType                   string `json:"job_type"`
	PublicationDate           string `json:"publication_date"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	Salary                    string `json:"salary"`
	Description               string `json:"description"`
}

type response struct {
	Jobs []Job `json:"jobs"`
}

// Options はフィードの取得設定です。
type Options struct {
	URL      string
	Category string
	Limit    int
	Timeout  time.Duration
}

// Client は外部求人フィードのクライアントです。
type Client struct {
	http *http.Client
	opts Options
	log  logging.Logger
}

// NewClient は Client を作成します。httpClient が nil の場合は opts.Timeout を使うクライアントを作ります。
func NewClient(httpClient *http.Client, opts Options, log logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{http: httpClient, opts: opts, log: log}
}

// Fetch はフィードを取得します。失敗時は common.ErrUpstreamUnavailable をラップしたエラーを返します。
func (c *Client) Fetch(ctx context.Context) ([]Job, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad url: %v", common.ErrUpstreamUnavailable, err)
	}
	q := u.Query()
	if c.opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(c.opts.Limit))
	}
	if c.opts.Category != "" {
		q.Set("category", c.opts.Category)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", common.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", common.ErrUpstreamUnavailable, err)
	}
	if body.Jobs == nil {
		body.Jobs = []Job{}
	}
	return body.Jobs, nil
}

// Jobs はフィードを取得し、失敗した場合はログに記録して空の一覧を返します。
func (c *Client) Jobs(ctx context.Context) []Job {
	jobs, err := c.Fetch(ctx)
	if err != nil {
		c.log.Error(ctx, "external feed unavailable", "url", c.opts.URL, "error", err)
		return []Job{}
	}
	return jobs
}
