package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

var (
	ErrUnexpectedStatus    = errors.New("unexpected response status")
	ErrUnknownContentSize  = errors.New("content size is unknown")
	ErrRangeNotSupported   = errors.New("server does not support range requests")
	errMalformedContentRng = errors.New("malformed Content-Range header")
)

// HTTPFetcher resolves media over HTTP using HEAD and ranged GET requests.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// Probe asks for the content length with HEAD. Servers that omit it on HEAD
// are asked for the first byte and the total is read from Content-Range.
func (f *HTTPFetcher) Probe(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusOK && resp.ContentLength >= 0 {
		return resp.ContentLength, nil
	}
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusMethodNotAllowed {
		return 0, fmt.Errorf("%w: HEAD %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	rc, total, err := f.get(ctx, url, 0, 1)
	if err != nil {
		return 0, err
	}
	_ = rc.Close()
	if total < 0 {
		return 0, ErrUnknownContentSize
	}
	return total, nil
}

func (f *HTTPFetcher) Range(ctx context.Context, url string, off, n int64) (io.ReadCloser, error) {
	rc, _, err := f.get(ctx, url, off, n)
	return rc, err
}

// get issues a ranged GET and returns the body with the total size, -1 if unknown.
func (f *HTTPFetcher) get(ctx context.Context, url string, off, n int64) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if n > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(off, 10)+"-"+strconv.FormatInt(off+n-1, 10))
	} else if off > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(off, 10)+"-")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		total, err := parseContentRangeTotal(resp.Header.Get("Content-Range"))
		if err != nil {
			_ = resp.Body.Close()
			return nil, 0, err
		}
		return resp.Body, total, nil
	case http.StatusOK:
		if off > 0 {
			_ = resp.Body.Close()
			return nil, 0, ErrRangeNotSupported
		}
		body := resp.Body
		if n > 0 {
			body = struct {
				io.Reader
				io.Closer
			}{io.LimitReader(resp.Body, n), resp.Body}
		}
		return body, resp.ContentLength, nil
	default:
		_ = resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: GET %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}

// parseContentRangeTotal extracts the complete length from "bytes 0-0/1234".
func parseContentRangeTotal(v string) (int64, error) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || !strings.HasPrefix(v, "bytes ") {
		return 0, fmt.Errorf("%w: %q", errMalformedContentRng, v)
	}
	if total == "*" {
		return -1, nil
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: %q", errMalformedContentRng, v)
	}
	return size, nil
}
