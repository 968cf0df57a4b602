package raster

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/rotblauer/elevd/params"
	"github.com/rotblauer/elevd/types/tile"
	"github.com/spf13/afero"
)

// RangeReader is random access to the bytes of one raster file.
// ReadRange fills p from offset off or returns an error.
type RangeReader interface {
	ReadRange(ctx context.Context, off int64, p []byte) (int, error)
	Size() int64
	io.Closer
}

// RangeOpener resolves a location, {baseUrl}/{fileName}, to a RangeReader.
type RangeOpener interface {
	OpenRange(ctx context.Context, location string) (RangeReader, error)
}

// Location joins a base URL or directory and a manifest file reference.
func Location(base, fileRef string) string {
	if base == "" {
		return fileRef
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(fileRef, "/")
}

// FormatSource opens tiles through a RangeOpener and decodes them by file extension.
type FormatSource struct {
	BaseURL string
	Opener  RangeOpener
}

func (s *FormatSource) Open(ctx context.Context, desc tile.Descriptor) (Reader, error) {
	loc := Location(s.BaseURL, desc.FileRef)
	ext := strings.ToLower(path.Ext(desc.FileRef))
	if ext != ".hgt" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, desc.FileRef)
	}
	rr, err := s.Opener.OpenRange(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	r, err := NewHGT(rr, desc.Bounds)
	if err != nil {
		_ = rr.Close()
		return nil, fmt.Errorf("decode %s: %w", loc, err)
	}
	return r, nil
}

// NewSource picks a RangeOpener for baseURL by scheme:
// s3:// for S3, http(s):// for ranged HTTP, file:// or a plain path for the OS file system.
func NewSource(baseURL string, s3Config params.S3Config) (*FormatSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedScheme, err)
	}
	switch u.Scheme {
	case "s3":
		opener, err := NewS3Opener(s3Config)
		if err != nil {
			return nil, err
		}
		return &FormatSource{BaseURL: baseURL, Opener: opener}, nil
	case "http", "https":
		return &FormatSource{BaseURL: baseURL, Opener: NewHTTPOpener(nil)}, nil
	case "file":
		return &FormatSource{BaseURL: u.Path, Opener: NewFSOpener(afero.NewOsFs())}, nil
	case "":
		return &FormatSource{BaseURL: baseURL, Opener: NewFSOpener(afero.NewOsFs())}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// FSOpener reads from an afero file system.
type FSOpener struct {
	Fs afero.Fs
}

func NewFSOpener(fs afero.Fs) *FSOpener {
	return &FSOpener{Fs: fs}
}

func (o *FSOpener) OpenRange(ctx context.Context, location string) (RangeReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := o.Fs.Open(location)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileRange{f: f, size: st.Size()}, nil
}

type fileRange struct {
	f    afero.File
	size int64
}

func (r *fileRange) ReadRange(ctx context.Context, off int64, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.f.ReadAt(p, off)
	if err == io.EOF && n == len(p) {
		err = nil
	}
	return n, err
}

func (r *fileRange) Size() int64  { return r.size }
func (r *fileRange) Close() error { return r.f.Close() }
