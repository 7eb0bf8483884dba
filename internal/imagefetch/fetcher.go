// Package imagefetch resolves member photo references to decoded images.
package imagefetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/groupcollage/api/internal/model"
)

const (
	DefaultWorkers = 5
	DefaultTimeout = 15 * time.Second

	// maxPhotoBytes bounds a single download.
	maxPhotoBytes = 25 << 20
)

// Config configures a Fetcher.
type Config struct {
	Workers int
	Timeout time.Duration
	// CDNHosts lists hosts that accept face-crop transform rewrites.
	CDNHosts []string
}

// Fetcher downloads and decodes member photos with bounded concurrency.
type Fetcher struct {
	httpClient *http.Client
	workers    int
	timeout    time.Duration
	cdnHosts   []string
	logger     *zap.Logger
}

// NewFetcher creates a fetcher. A nil httpClient uses a default client.
func NewFetcher(cfg Config, httpClient *http.Client, logger *zap.Logger) *Fetcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		httpClient: httpClient,
		workers:    cfg.Workers,
		timeout:    cfg.Timeout,
		cdnHosts:   cfg.CDNHosts,
		logger:     logger,
	}
}

// FetchAll resolves every member photo. Members whose photo cannot be
// obtained are absent from the result; the compositor draws a placeholder
// for them. At most Workers fetches run at once.
func (f *Fetcher) FetchAll(ctx context.Context, members []model.Member, size image.Point) map[string]image.Image {
	queue := make(chan int)
	results := make([]image.Image, len(members))

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < f.workers; w++ {
		g.Go(func() error {
			for i := range queue {
				img, err := f.Fetch(gctx, members[i].PhotoRef, size)
				if err != nil {
					f.logger.Warn("photo unavailable, using placeholder",
						zap.String("memberId", members[i].ID),
						zap.Error(err))
					continue
				}
				results[i] = img
			}
			return nil
		})
	}

	func() {
		defer close(queue)
		for i, m := range members {
			if !m.HasPhoto() {
				continue
			}
			select {
			case queue <- i:
			case <-gctx.Done():
				return
			}
		}
	}()
	_ = g.Wait()

	images := make(map[string]image.Image, len(members))
	for i, img := range results {
		if img != nil {
			images[members[i].ID] = img
		}
	}
	return images
}

// Fetch resolves a single photo reference.
func (f *Fetcher) Fetch(ctx context.Context, ref string, size image.Point) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty photo reference")
	}

	var data []byte
	var err error
	if strings.HasPrefix(ref, "data:") {
		data, err = DecodeDataURI(ref)
	} else {
		data, err = f.download(ctx, f.TransformURL(ref, size))
	}
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("malformed photo reference %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/webp,image/jpeg,image/png,image/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("photo host returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return data, nil
}

// DecodeDataURI returns the payload of a base64 or percent-encoded data URI.
func DecodeDataURI(ref string) ([]byte, error) {
	comma := strings.IndexByte(ref, ',')
	if !strings.HasPrefix(ref, "data:") || comma < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	meta, payload := ref[len("data:"):comma], ref[comma+1:]

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some clients strip padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URI: %w", err)
		}
		return data, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid data URI payload: %w", err)
	}
	return []byte(s), nil
}
