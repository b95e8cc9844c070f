// Package speaker plays tracks on the local sound card.
package speaker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

var (
	// ErrAudioUnavailable is returned when the build has no audio backend.
	ErrAudioUnavailable = errors.New("audio output not available in this build")
	// ErrNoSource is returned when playback is requested with nothing loaded.
	ErrNoSource = errors.New("no source loaded")
	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// maxRemoteSize bounds how much of a remote stream is buffered in memory.
const maxRemoteSize = 64 << 20

// Source is an opened audio resource.
type Source struct {
	io.ReadCloser
	Ext string // lower-case extension including the dot
}

// Resolver opens track sources from a media root or over HTTP.
type Resolver struct {
	root   string
	client *http.Client
}

// NewResolver creates a resolver serving rooted paths from root.
func NewResolver(root string) *Resolver {
	return &Resolver{
		root:   root,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Path maps a rooted source such as "/audio/a.mp3" inside the media root.
func (r *Resolver) Path(src string) string {
	clean := path.Clean("/" + strings.TrimLeft(src, "/"))
	return filepath.Join(r.root, filepath.FromSlash(clean))
}

// Open opens src. Remote sources are downloaded into memory so decoders can seek.
func (r *Resolver) Open(ctx context.Context, src string) (Source, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return r.fetch(ctx, src)
	}

	p := r.Path(src)
	f, err := os.Open(p)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open %s: %w", p, err)
	}
	return Source{ReadCloser: f, Ext: strings.ToLower(filepath.Ext(p))}, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) (Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Source{}, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %s: %w", url, err)
	}

	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	if ext == "" {
		ext = extForContentType(resp.Header.Get("Content-Type"))
	}
	return Source{ReadCloser: nopCloser{bytes.NewReader(data)}, Ext: ext}, nil
}

func extForContentType(ct string) string {
	switch {
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "wav"):
		return ".wav"
	default:
		return ".mp3"
	}
}

// Decode picks a decoder by extension.
func Decode(src Source) (beep.StreamSeekCloser, beep.Format, error) {
	switch src.Ext {
	case ".mp3":
		return mp3.Decode(src.ReadCloser)
	case ".wav":
		return wav.Decode(src.ReadCloser)
	case ".flac":
		return flac.Decode(src.ReadCloser)
	}
	src.Close()
	return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, src.Ext)
}

// Gain converts a linear 0-1 level into effects.Volume settings (base 2).
func Gain(level float64) (volume float64, silent bool) {
	if math.IsNaN(level) || level <= 0 {
		return 0, true
	}
	return math.Log2(min(level, 1)), false
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
