package workshop

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// maxPreviewDim caps the smaller dimension of a stored preview image.
const maxPreviewDim = 512

// PreviewDownloaded reports whether a preview for the id is already cached,
// by filename substring match against the previews directory.
func (e *Engine) PreviewDownloaded(id int64) bool {
	return len(previewFilesFor(e.paths.Previews, id)) > 0
}

// FetchPreview retrieves the preview image for id, downscales it when its
// smaller dimension exceeds the cap, and stores it keyed by the id with an
// extension matching the source format. Returns the bytes written; every
// failure is logged and degrades to 0.
func (e *Engine) FetchPreview(id int64, rawURL string) int64 {
	log := e.log.With(zap.Int64("steam_id", id))
	if rawURL == "" {
		log.Warnw("Asset has no preview URL")
		return 0
	}

	resp, err := e.probe.Get(rawURL)
	if err != nil {
		log.Errorw("Failed to fetch preview", zap.Error(err))
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorw("Preview request failed", zap.Int("status", resp.StatusCode))
		return 0
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorw("Failed to read preview body", zap.Error(err))
		return 0
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Errorw("Failed to decode preview image", zap.Error(err))
		return 0
	}

	img = scaleDown(img)

	ext := format
	switch ext {
	case "jpeg", "png", "gif":
	default:
		ext = "png"
	}
	path := filepath.Join(e.paths.Previews, fmt.Sprintf("%d.%s", id, ext))

	err = imaging.Save(img, path,
		imaging.PNGCompressionLevel(png.BestCompression),
		imaging.JPEGQuality(85),
	)
	if err != nil {
		log.Errorw("Failed to save preview", zap.String("path", path), zap.Error(err))
		return 0
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Errorw("Failed to stat saved preview", zap.String("path", path), zap.Error(err))
		return 0
	}
	return info.Size()
}

// scaleDown shrinks the image, preserving aspect ratio, so its smaller
// dimension equals the cap. Smaller images pass through untouched.
func scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	smaller := width
	if height < width {
		smaller = height
	}
	if smaller <= maxPreviewDim {
		return img
	}

	ratio := float64(maxPreviewDim) / float64(smaller)
	return imaging.Resize(img,
		int(float64(width)*ratio),
		int(float64(height)*ratio),
		imaging.Lanczos,
	)
}
