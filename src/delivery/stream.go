package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sonicd/sonicd/src/metrics"
)

// Stream is the audio of a single song. Bytes are read from the source
// only when the consumer is ready to take them, one chunk at a time.
type Stream struct {
	SongID  int64
	Mode    Mode
	Bitrate int

	// Name is a file name suitable for the content disposition.
	Name        string
	ContentType string

	// Size is the length of the stream or -1 when it is not known up front.
	Size int64

	src       io.ReadCloser
	encoder   *encoder
	chunkSize int
	ctx       context.Context
	logger    zerolog.Logger

	sent      int64
	closeOnce sync.Once
	closeErr  error
}

type flusher interface {
	Flush()
}

// WriteTo sends the stream to `w`. It stops at the end of the stream, on
// the first write error or when the context of the stream is done. When `w`
// could be flushed it is flushed after every chunk.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	metrics.StreamsInFlight.Inc()
	defer metrics.StreamsInFlight.Dec()

	bytesSent := metrics.StreamBytes.WithLabelValues(s.Mode.String())
	f, canFlush := w.(flusher)
	buf := make([]byte, s.chunkSize)

	for {
		if err := s.ctx.Err(); err != nil {
			return s.sent, err
		}

		n, readErr := io.ReadFull(s.src, buf)
		if n > 0 {
			written, err := w.Write(buf[:n])
			s.sent += int64(written)
			bytesSent.Add(float64(written))
			if err != nil {
				return s.sent, err
			}
			if canFlush {
				f.Flush()
			}
		}

		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			if s.encoder != nil {
				s.encoder.finish(true, s.sent)
			}
			s.logger.Debug().Int64("bytes", s.sent).Msg("stream sent")
			return s.sent, nil
		}
		if readErr != nil {
			return s.sent, fmt.Errorf("reading song %d: %w", s.SongID, readErr)
		}
	}
}

// Sent returns the number of bytes written so far.
func (s *Stream) Sent() int64 {
	return s.sent
}

// Close releases the source of the stream. For transcoded streams the
// encoder gets its grace period to exit from this moment on.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.src.Close()
		if s.encoder != nil {
			s.encoder.finish(false, s.sent)
		}
	})
	return s.closeErr
}

// Wait blocks until the encoder of a transcoded stream has exited and
// returns ErrEncoderFailure or ErrEncoderTimeout when it did not finish
// cleanly. It returns nil immediately for passthrough streams. Call it only
// after the stream was sent or closed.
func (s *Stream) Wait() error {
	if s.encoder == nil {
		return nil
	}
	return s.encoder.wait()
}
