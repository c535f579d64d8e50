// Package scaler resizes cover images. A fixed pool of workers does the
// decoding and scaling so that many concurrent cover requests cannot eat up
// all the CPU.
package scaler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"runtime"
	"sync/atomic"

	// Image formats which could be decoded for scaling.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// ErrCancelled is returned when one is trying to interact with a stopped
// scaler.
var ErrCancelled = errors.New("scale operation on cancelled Scaler")

// job is a single scaling instruction.
type job struct {
	toWidth int
	img     io.Reader
	result  chan result
}

type result struct {
	imgData []byte
	err     error
}

// Scaler scales images on a pool of workers.
type Scaler struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
	done    chan struct{}

	work chan job
}

// New returns a scaler with `workers` goroutines. Zero or less means one
// worker per CPU. The scaler stops when `ctx` is done or Cancel is called.
func New(ctx context.Context, workers int) *Scaler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Scaler{
		cancel: cancel,
		done:   make(chan struct{}),
		work:   make(chan job),
	}

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			return s.worker(gctx)
		})
	}

	go func() {
		<-gctx.Done()
		s.stopped.Store(true)
		close(s.done)
		_ = g.Wait()
	}()

	return s
}

// Scale converts the image read from `img` to a JPEG with width `toWidth`
// pixels, keeping its aspect ratio.
func (s *Scaler) Scale(ctx context.Context, img io.Reader, toWidth int) ([]byte, error) {
	if s.stopped.Load() {
		return nil, ErrCancelled
	}
	if toWidth <= 0 {
		return nil, fmt.Errorf("invalid image width %d", toWidth)
	}

	j := job{
		toWidth: toWidth,
		img:     img,
		result:  make(chan result, 1),
	}

	select {
	case s.work <- j:
	case <-s.done:
		return nil, ErrCancelled
	case <-ctx.Done():
		return nil, fmt.Errorf("ctx done while waiting to send scale op: %w", ctx.Err())
	}

	select {
	case res := <-j.result:
		return res.imgData, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("ctx done while waiting for scaled image: %w", ctx.Err())
	}
}

// Cancel stops the scaler. Scale returns ErrCancelled from then on.
func (s *Scaler) Cancel() {
	s.stopped.Store(true)
	s.cancel()
}

func (s *Scaler) worker(ctx context.Context) error {
	for {
		select {
		case j := <-s.work:
			imgData, err := scaleImage(j.img, j.toWidth)
			j.result <- result{imgData: imgData, err: err}
		case <-ctx.Done():
			return nil
		}
	}
}

func scaleImage(imgReader io.Reader, toWidth int) ([]byte, error) {
	img, _, err := image.Decode(imgReader)
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	bounds := img.Bounds()
	toHeight := toWidth
	if bounds.Dx() != bounds.Dy() && bounds.Dx() > 0 {
		toHeight = max(1, int(float64(bounds.Dy())/float64(bounds.Dx())*float64(toWidth)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, toWidth, toHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, nil); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	return out.Bytes(), nil
}
