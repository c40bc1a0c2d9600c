package hycom

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/fetch"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/ingestion"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

// Downloader fetches a URL into a local file. *fetch.Fetcher implements it.
type Downloader interface {
	Fetch(ctx context.Context, rawURL, dest string) (fetch.Result, error)
}

// Options are the per-job request settings shared by every day of a run.
type Options struct {
	Box     model.Box
	Testing bool
	Accept  Accept
}

// Client requests subsets from the HYCOM NCSS server.
type Client struct {
	baseURL    string
	downloader Downloader
	opts       Options
}

// NewClient creates a new HYCOM NCSS client.
func NewClient(baseURL string, downloader Downloader, opts Options) *Client {
	if opts.Accept == "" {
		opts.Accept = AcceptNetCDF
	}
	return &Client{
		baseURL:    baseURL,
		downloader: downloader,
		opts:       opts,
	}
}

// Fetch downloads one day of req.RunType into req.Dest.
func (c *Client) Fetch(ctx context.Context, req ingestion.FetchRequest) (ingestion.FetchResult, error) {
	hreq := Request{
		RunType: req.RunType,
		Day:     req.Day,
		Box:     c.opts.Box,
		Testing: c.opts.Testing,
		Accept:  c.opts.Accept,
	}

	u, err := hreq.URL(c.baseURL)
	if err != nil {
		return ingestion.FetchResult{}, c.toClientError(err, "failed to build request")
	}

	vars := hreq.Variables()
	slog.InfoContext(ctx, "requesting HYCOM extraction",
		"run_type", req.RunType,
		"day", model.DateString(req.Day),
		"variables", strings.Join(vars, ","),
		"accept", hreq.Accept,
	)
	slog.DebugContext(ctx, "HYCOM request url", "url", u)

	res, err := c.downloader.Fetch(ctx, u, req.Dest)
	if err != nil {
		return ingestion.FetchResult{}, c.toClientError(err, "failed to download extraction")
	}

	return ingestion.FetchResult{
		Path:      res.Path,
		URL:       u,
		Variables: vars,
		Attempts:  res.Attempts,
		Elapsed:   res.Elapsed,
		Bytes:     res.Bytes,
	}, nil
}

// toClientError wraps an internal error into a ClientError for external consumers.
func (c *Client) toClientError(err error, context string) error {
	if err == nil {
		return nil
	}
	return &ClientError{Message: context, Err: err}
}
