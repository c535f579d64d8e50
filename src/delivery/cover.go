package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/sonicd/sonicd/src/metrics"
)

var coverTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// CoverContentType returns the content type for a cover file name. Unknown
// extensions are ErrUnsupportedCoverType.
func CoverContentType(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	ct, ok := coverTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCoverType, ext)
	}
	return ct, nil
}

// CoverImage is an opened cover. It must be closed.
type CoverImage struct {
	Name        string
	ContentType string
	ModTime     time.Time
	Content     io.ReadSeeker

	closer io.Closer
}

// Close releases the cover file.
func (c *CoverImage) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// OpenCover opens the cover with ID `coverID`. When `size` is positive and
// the pipeline has a scaler the image is resized to this width and served
// as JPEG. Should resizing fail the original image is served.
func (p *Pipeline) OpenCover(ctx context.Context, coverID int64, size int) (*CoverImage, error) {
	cover, err := p.src.Cover(ctx, coverID)
	if err != nil {
		return nil, err
	}

	contentType, err := CoverContentType(cover.Path)
	if err != nil {
		return nil, err
	}

	fullPath := cover.FullPath()
	fh, err := p.fs.Open(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cover %d: %w", coverID, ErrSourceMissing)
	} else if err != nil {
		return nil, fmt.Errorf("opening cover %d: %w", coverID, err)
	}

	img := &CoverImage{
		Name:        path.Base(cover.Path),
		ContentType: contentType,
		Content:     fh,
		closer:      fh,
	}
	if info, err := fh.Stat(); err == nil {
		img.ModTime = info.ModTime()
	}

	if size <= 0 || p.scaler == nil {
		return img, nil
	}

	scaled, err := p.scaler.Scale(ctx, fh, size)
	if err != nil {
		metrics.CoverScales.WithLabelValues("error").Inc()
		log.Warn().Err(err).Int64("cover_id", coverID).Int("size", size).Msg("scaling cover")
		return p.reopenCover(img, fh, fullPath)
	}
	metrics.CoverScales.WithLabelValues("ok").Inc()
	_ = fh.Close()

	img.Name = strings.TrimSuffix(img.Name, path.Ext(img.Name)) + ".jpg"
	img.ContentType = "image/jpeg"
	img.Content = bytes.NewReader(scaled)
	img.closer = nil

	return img, nil
}

// reopenCover rewinds the cover file after a failed scaling attempt.
func (p *Pipeline) reopenCover(img *CoverImage, fh afero.File, fullPath string) (*CoverImage, error) {
	if _, err := fh.Seek(0, io.SeekStart); err == nil {
		return img, nil
	}
	_ = fh.Close()

	fh, err := p.fs.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reopening cover: %w", err)
	}
	img.Content = fh
	img.closer = fh

	return img, nil
}
