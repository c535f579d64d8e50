package delivery

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sonicd/sonicd/src/metrics"
)

// encoder is a running encoder process together with its supervisor.
type encoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	grace  time.Duration
	logger zerolog.Logger

	onSuccess func(sent int64)

	drained    atomic.Bool
	sent       atomic.Int64
	finished   chan struct{}
	finishOnce sync.Once

	exited chan struct{}
	result error
}

// encoderArgs returns the encoder command line for reading `path` and
// writing `format` at `bitrate` kbps to the standard output.
func encoderArgs(path string, bitrate int, format string) []string {
	return []string{
		"-i", path,
		"-map", "0:0",
		"-b:a", strconv.Itoa(bitrate) + "k",
		"-v", "0",
		"-f", format,
		"-",
	}
}

func (p *Pipeline) startEncoder(
	ctx context.Context,
	path string,
	bitrate int,
	logger zerolog.Logger,
	onSuccess func(sent int64),
) (*encoder, error) {
	// The process is not bound to ctx. Its supervisor decides when it has
	// to be killed.
	cmd := exec.Command(p.cfg.EncoderPath, encoderArgs(path, bitrate, p.cfg.TargetFormat)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %w", ErrEncoderFailure, p.cfg.EncoderPath, err)
	}

	enc := &encoder{
		cmd:       cmd,
		stdout:    stdout,
		grace:     p.cfg.GracePeriod,
		logger:    logger.With().Int("pid", cmd.Process.Pid).Logger(),
		onSuccess: onSuccess,
		finished:  make(chan struct{}),
		exited:    make(chan struct{}),
	}
	go enc.supervise(ctx)

	return enc, nil
}

// finish tells the supervisor that nothing more will be read from the
// encoder's output.
func (e *encoder) finish(drained bool, sent int64) {
	e.finishOnce.Do(func() {
		e.drained.Store(drained)
		e.sent.Store(sent)
		close(e.finished)
	})
}

// supervise waits for the stream to finish or for its request to be
// cancelled. Then it gives the process the grace period to exit and kills
// it if it did not.
func (e *encoder) supervise(ctx context.Context) {
	defer close(e.exited)

	select {
	case <-e.finished:
	case <-ctx.Done():
	}

	waited := make(chan error, 1)
	go func() {
		waited <- e.cmd.Wait()
	}()

	timer := time.NewTimer(e.grace)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-waited:
	case <-timer.C:
		if err := e.cmd.Process.Kill(); err != nil {
			e.logger.Warn().Err(err).Msg("killing encoder")
		}
		<-waited

		e.result = ErrEncoderTimeout
		metrics.EncoderResults.WithLabelValues("timeout").Inc()
		e.logger.Error().Err(e.result).Dur("grace", e.grace).Msg("encoder killed")
		return
	}

	drained := e.drained.Load()
	switch {
	case waitErr != nil:
		e.result = fmt.Errorf("%w: %w", ErrEncoderFailure, waitErr)
		if drained {
			metrics.EncoderResults.WithLabelValues("failure").Inc()
			e.logger.Error().Err(e.result).Msg("encoder exited with an error")
		} else {
			metrics.EncoderResults.WithLabelValues("aborted").Inc()
			e.logger.Info().Err(e.result).Msg("encoder stopped before its output was read")
		}
	case !drained:
		metrics.EncoderResults.WithLabelValues("aborted").Inc()
		e.logger.Debug().Msg("stream closed before the encoder output was read")
	default:
		metrics.EncoderResults.WithLabelValues("ok").Inc()
		e.logger.Debug().Int64("bytes", e.sent.Load()).Msg("transcode finished")
		if e.onSuccess != nil {
			e.onSuccess(e.sent.Load())
		}
	}
}

// wait blocks until the encoder process has been reaped and returns the
// supervision result.
func (e *encoder) wait() error {
	<-e.exited
	return e.result
}
