// Package imagepipe downloads, validates and optimizes product images, then
// uploads size variants to object storage with bounded concurrency.
package imagepipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Validation errors
var (
	ErrImageTooLarge       = errors.New("imagepipe: image exceeds maximum size")
	ErrImageTypeNotAllowed = errors.New("imagepipe: image type not allowed")
	ErrImageCorrupt        = errors.New("imagepipe: image data is not a decodable image")
	ErrImageSourceEmpty    = errors.New("imagepipe: image source has neither url nor data")
)

// Variant names used in storage keys.
const (
	VariantOriginal  = "original"
	VariantOptimized = "optimized"
	VariantThumbnail = "thumbnail"
)

// allowedMIMETypes is the accepted image format allow-list. Detection runs
// on magic bytes, so a spoofed extension or declared MIME type does not get
// past it.
var allowedMIMETypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ObjectStorageService is the blob storage port the pipeline uploads to.
type ObjectStorageService interface {
	// Upload stores data under the given key
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// PublicURL returns the externally reachable URL for a stored key
	PublicURL(storageKey string) string
}

// Source is one image to process, either a remote URL or raw bytes.
type Source struct {
	URL      string
	Data     []byte
	Filename string
	// Type is the storage key segment, e.g. "main" or "additional"
	Type string
}

// ImageAsset is the processed result for one image: all variant URLs plus
// dimensional metadata of the optimized rendition.
type ImageAsset struct {
	OriginalURL  string `json:"original_url"`
	OptimizedURL string `json:"optimized_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	SizeBytes    int    `json:"size_bytes"`
}

// Outcome pairs one input source with its asset or failure. Failures are
// isolated per image; callers decide how to degrade.
type Outcome struct {
	Source Source
	Asset  *ImageAsset
	Err    error
}

// Config tunes the pipeline.
type Config struct {
	// MaxFileSize is the per-image byte limit
	MaxFileSize int64
	// ConcurrentUploads bounds in-flight images within one batch
	ConcurrentUploads int
	// MaxWidth and MaxHeight bound the optimized variant (fit inside, no upscale)
	MaxWidth  int
	MaxHeight int
	// ThumbnailSize is the square edge of the cover-cropped thumbnail
	ThumbnailSize int
	// JPEGQuality applies to re-encoded variants
	JPEGQuality int
	// DownloadTimeout bounds a single source download
	DownloadTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 10 * 1024 * 1024
	}
	if c.ConcurrentUploads <= 0 {
		c.ConcurrentUploads = 3
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = 1200
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 1200
	}
	if c.ThumbnailSize <= 0 {
		c.ThumbnailSize = 500
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 85
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 30 * time.Second
	}
}

// Pipeline processes product images in batches.
type Pipeline struct {
	config     Config
	storage    ObjectStorageService
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// PipelineOption is a functional option for configuring Pipeline
type PipelineOption func(*Pipeline)

// WithHTTPClient sets the client used for source downloads
func WithHTTPClient(client *http.Client) PipelineOption {
	return func(p *Pipeline) { p.httpClient = client }
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates an image pipeline over the given storage backend.
func NewPipeline(config Config, storage ObjectStorageService, opts ...PipelineOption) *Pipeline {
	config.applyDefaults()
	p := &Pipeline{
		config:  config,
		storage: storage,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: config.DownloadTimeout}
	}
	return p
}

// ProcessImages runs every source through acquire, validate, derive and
// upload. Sources are partitioned into batches of ConcurrentUploads; one
// batch runs concurrently, batches run sequentially. A failed image never
// blocks the others.
func (p *Pipeline) ProcessImages(ctx context.Context, productID string, sources []Source) []Outcome {
	outcomes := make([]Outcome, len(sources))
	for i := range sources {
		outcomes[i].Source = sources[i]
	}

	batch := p.config.ConcurrentUploads
	for start := 0; start < len(sources); start += batch {
		end := start + batch
		if end > len(sources) {
			end = len(sources)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				asset, err := p.processOne(gctx, productID, sources[i])
				outcomes[i].Asset = asset
				outcomes[i].Err = err
				if err != nil {
					p.logger.Warn("image processing failed",
						zap.String("product_id", productID),
						zap.String("source_url", sources[i].URL),
						zap.Error(err))
				}
				// Isolation: never abort the group.
				return nil
			})
		}
		g.Wait()

		if ctx.Err() != nil {
			for i := end; i < len(sources); i++ {
				outcomes[i].Err = ctx.Err()
			}
			break
		}
	}
	return outcomes
}

// processOne handles a single image end to end.
func (p *Pipeline) processOne(ctx context.Context, productID string, src Source) (*ImageAsset, error) {
	data, err := p.acquire(ctx, src)
	if err != nil {
		return nil, err
	}

	contentType, ext, err := p.validate(data)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageCorrupt, err)
	}

	fitted := imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
	optimized, err := p.encodeJPEG(fitted)
	if err != nil {
		return nil, err
	}
	thumbnail, err := p.encodeJPEG(imaging.Fill(img, p.config.ThumbnailSize, p.config.ThumbnailSize, imaging.Center, imaging.Lanczos))
	if err != nil {
		return nil, err
	}

	imageType := src.Type
	if imageType == "" {
		imageType = "main"
	}
	prefix := p.keyPrefix(productID, imageType)

	originalKey := prefix + "_" + VariantOriginal + "." + ext
	optimizedKey := prefix + "_" + VariantOptimized + ".jpg"
	thumbnailKey := prefix + "_" + VariantThumbnail + ".jpg"

	if err := p.storage.Upload(ctx, originalKey, data, contentType); err != nil {
		return nil, fmt.Errorf("imagepipe: upload original: %w", err)
	}
	if err := p.storage.Upload(ctx, optimizedKey, optimized, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("imagepipe: upload optimized: %w", err)
	}
	if err := p.storage.Upload(ctx, thumbnailKey, thumbnail, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("imagepipe: upload thumbnail: %w", err)
	}

	bounds := fitted.Bounds()
	return &ImageAsset{
		OriginalURL:  p.storage.PublicURL(originalKey),
		OptimizedURL: p.storage.PublicURL(optimizedKey),
		ThumbnailURL: p.storage.PublicURL(thumbnailKey),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Format:       ext,
		SizeBytes:    len(data),
	}, nil
}

// acquire fetches the image bytes, downloading when the source is a URL.
func (p *Pipeline) acquire(ctx context.Context, src Source) ([]byte, error) {
	if len(src.Data) > 0 {
		if int64(len(src.Data)) > p.config.MaxFileSize {
			return nil, ErrImageTooLarge
		}
		return src.Data, nil
	}
	if src.URL == "" {
		return nil, ErrImageSourceEmpty
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("imagepipe: build download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagepipe: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imagepipe: download returned status %d", resp.StatusCode)
	}

	// Read one byte past the limit so oversize bodies are detectable
	// without buffering them whole.
	data, err := io.ReadAll(io.LimitReader(resp.Body, p.config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("imagepipe: read download: %w", err)
	}
	if int64(len(data)) > p.config.MaxFileSize {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// validate checks the magic-byte signature against the allow-list and
// returns the detected content type and file extension.
func (p *Pipeline) validate(data []byte) (contentType, ext string, err error) {
	mt := mimetype.Detect(data)
	base, _, _ := strings.Cut(mt.String(), ";")
	ext, ok := allowedMIMETypes[base]
	if !ok {
		return "", "", fmt.Errorf("%w: detected %s", ErrImageTypeNotAllowed, mt.String())
	}
	return base, ext, nil
}

func (p *Pipeline) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.config.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("imagepipe: encode variant: %w", err)
	}
	return buf.Bytes(), nil
}

// keyPrefix builds the per-product storage prefix:
// products/{productId}/{imageType}/{timestamp}_{randomId}
func (p *Pipeline) keyPrefix(productID, imageType string) string {
	ts := p.now().UTC().Format("20060102T150405")
	randomID := uuid.NewString()[:8]
	return path.Join("products", productID, imageType, ts) + "_" + randomID
}
