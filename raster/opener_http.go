package raster

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// HTTPOpener reads rasters from a server supporting Range requests.
type HTTPOpener struct {
	Client *http.Client
}

func NewHTTPOpener(client *http.Client) *HTTPOpener {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPOpener{Client: client}
}

// OpenRange issues a HEAD request for the content length.
func (o *HTTPOpener) OpenRange(ctx context.Context, location string) (RangeReader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return nil, err
	}
	res, err := o.Client.Do(req)
	if err != nil {
		return nil, err
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HEAD %s: %s", location, res.Status)
	}
	size := res.ContentLength
	if size < 0 {
		size, err = strconv.ParseInt(res.Header.Get("Content-Length"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("HEAD %s: unknown content length", location)
		}
	}
	return &httpRange{client: o.Client, url: location, size: size}, nil
}

type httpRange struct {
	client *http.Client
	url    string
	size   int64
}

func (r *httpRange) ReadRange(ctx context.Context, off int64, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1))
	res, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		// Server ignored the range and sent the whole file.
		if _, err := io.CopyN(io.Discard, res.Body, off); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: GET %s: %s", ErrRangeNotSatisfied, r.url, res.Status)
	}
	return io.ReadFull(res.Body, p)
}

func (r *httpRange) Size() int64  { return r.size }
func (r *httpRange) Close() error { return nil }
