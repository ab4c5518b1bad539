package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxImageSide bounds the longer side of a converted image.
const MaxImageSide = 1920

// MaxImagePixels bounds the decoded size of an image accepted for conversion. Larger
// images are stored as uploaded.
const MaxImagePixels = 50_000_000

// ErrImageTooLarge is returned by ConvertToWebP for images above MaxImagePixels.
var ErrImageTooLarge = errors.New("image too large to convert")

// File types recorded next to an uploaded URL.
const (
	FileTypeImage = "image"
	FileTypeFile  = "file"
)

// Upload is a file received from the admin dashboard.
type Upload struct {
	Bucket      string
	Folder      string
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult is what the dashboard stores on the record.
type UploadResult struct {
	URL      string `json:"url"`
	FileType string `json:"file_type"`
	Path     string `json:"path"`
}

// Uploader stores dashboard uploads, converting raster images to WebP.
type Uploader struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewUploader creates an Uploader writing to store.
func NewUploader(store Store, logger zerolog.Logger) *Uploader {
	return &Uploader{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Upload stores up under "<folder>/<unix millis>.<ext>". Images other than SVG are
// scaled down to MaxImageSide and re-encoded as WebP; if that fails the original bytes
// are stored with their original extension.
func (u *Uploader) Upload(ctx context.Context, up Upload) (*UploadResult, error) {
	if up.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if len(up.Data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}
	folder := strings.Trim(up.Folder, "/")
	if folder == "" {
		folder = "uploads"
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(up.Filename)), ".")
	fileType := FileTypeFile
	if strings.HasPrefix(up.ContentType, "image/") {
		fileType = FileTypeImage
	}

	data, contentType := up.Data, up.ContentType
	if fileType == FileTypeImage && ext != "svg" {
		converted, err := ConvertToWebP(up.Data)
		if err != nil {
			u.logger.Warn().Err(err).Str("filename", up.Filename).Msg("WebP conversion failed, uploading original")
		} else {
			data, contentType, ext = converted, "image/webp", "webp"
		}
	}

	name := fmt.Sprintf("%d", u.now().UnixMilli())
	if ext != "" {
		name += "." + ext
	}
	objectPath := folder + "/" + name

	url, err := u.store.Upload(ctx, up.Bucket, objectPath, data, contentType)
	if err != nil {
		return nil, err
	}
	u.logger.Info().Str("bucket", up.Bucket).Str("path", objectPath).Str("file_type", fileType).Msg("file uploaded")
	return &UploadResult{URL: url, FileType: fileType, Path: objectPath}, nil
}

// ConvertToWebP decodes a JPEG, PNG, GIF or WebP image, scales it so neither side
// exceeds MaxImageSide and encodes it as WebP. The header is checked first so images
// above MaxImagePixels are refused before any pixel buffer is allocated.
func ConvertToWebP(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := src
	b := src.Bounds()
	if w, h := fitWithin(b.Dx(), b.Dy(), MaxImageSide); w != b.Dx() || h != b.Dy() {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales w×h down so the longer side is at most limit, keeping the aspect
// ratio.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}
