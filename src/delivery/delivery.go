// Package delivery serves audio and cover bytes for catalog IDs. Audio is
// either sent as it is stored or re-encoded to a lower bitrate by an
// external encoder process which the pipeline supervises.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pborman/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/sonicd/sonicd/src/catalog"
	"github.com/sonicd/sonicd/src/metrics"
)

// Bitrate limits in kbps.
const (
	MinBitrate = 32
	MaxBitrate = 320
)

var (
	// ErrInvalidBitrate is returned for requested bitrates outside of
	// [MinBitrate, MaxBitrate].
	ErrInvalidBitrate = errors.New("invalid bitrate")

	// ErrSourceMissing is returned when the file of a song or a cover is
	// not on disk.
	ErrSourceMissing = errors.New("source file is missing")

	// ErrEncoderFailure is the result of an encoder process which exited
	// with an error.
	ErrEncoderFailure = errors.New("encoder failed")

	// ErrEncoderTimeout is the result of an encoder process which was
	// killed because it did not exit in time.
	ErrEncoderTimeout = errors.New("encoder did not exit in time")

	// ErrUnsupportedCoverType is returned for cover images with unknown
	// file extensions.
	ErrUnsupportedCoverType = errors.New("unsupported cover type")
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . SongSource

// SongSource is where the pipeline finds songs and covers and reports
// finished transcodes.
type SongSource interface {
	Song(ctx context.Context, id int64) (catalog.Song, error)
	Cover(ctx context.Context, id int64) (catalog.Cover, error)
	RecordTranscode(ctx context.Context, songID int64, bitrate int, size int64) error
}

// CoverScaler resizes cover images to a width in pixels and returns them
// as JPEG.
type CoverScaler interface {
	Scale(ctx context.Context, img io.Reader, toWidth int) ([]byte, error)
}

// Config configures a Pipeline.
type Config struct {
	// MaxBitrate is the server wide bitrate ceiling in kbps.
	MaxBitrate int

	// SkipTranscode makes every stream a passthrough one.
	SkipTranscode bool

	// TargetFormat is the container the encoder produces, e.g. "mp3".
	TargetFormat string

	// EncoderPath is the encoder executable. It is called with ffmpeg
	// compatible arguments.
	EncoderPath string

	// GracePeriod is how long the encoder is allowed to run after its
	// stream has finished before it is killed.
	GracePeriod time.Duration

	// ChunkSize is the number of bytes sent at a time.
	ChunkSize int
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		MaxBitrate:   MaxBitrate,
		TargetFormat: "mp3",
		EncoderPath:  "ffmpeg",
		GracePeriod:  90 * time.Second,
		ChunkSize:    16 * 1024,
	}
}

// Mode says how a song is delivered.
type Mode int

const (
	// Passthrough streams the file as it is stored.
	Passthrough Mode = iota

	// Transcode streams the output of the encoder.
	Transcode
)

func (m Mode) String() string {
	if m == Transcode {
		return "transcode"
	}
	return "passthrough"
}

// Pipeline opens audio and cover streams.
type Pipeline struct {
	src    SongSource
	cfg    Config
	fs     afero.Fs
	scaler CoverScaler
}

// New returns a pipeline for the songs of `src`. Files are read through
// `fs`. `scaler` may be nil in which case covers are never resized.
func New(src SongSource, fs afero.Fs, scaler CoverScaler, cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.MaxBitrate <= 0 || cfg.MaxBitrate > MaxBitrate {
		cfg.MaxBitrate = def.MaxBitrate
	}
	if cfg.TargetFormat == "" {
		cfg.TargetFormat = def.TargetFormat
	}
	if cfg.EncoderPath == "" {
		cfg.EncoderPath = def.EncoderPath
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = def.GracePeriod
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}

	return &Pipeline{
		src:    src,
		cfg:    cfg,
		fs:     fs,
		scaler: scaler,
	}
}

// MaxBitrate returns the server wide bitrate ceiling in kbps.
func (p *Pipeline) MaxBitrate() int {
	return p.cfg.MaxBitrate
}

// Negotiate returns the bitrate a song is delivered at: the lowest of the
// requested one, the server ceiling and the bitrate of the source. All
// values are in kbps. An unknown source bitrate is taken as MaxBitrate.
func Negotiate(requested, ceiling, sourceKbps int) int {
	if sourceKbps <= 0 {
		sourceKbps = MaxBitrate
	}
	return min(requested, ceiling, sourceKbps)
}

// Decide returns whether `song` delivered at `effective` kbps could be
// streamed as it is.
func (p *Pipeline) Decide(song catalog.Song, effective int) Mode {
	if p.cfg.SkipTranscode {
		return Passthrough
	}

	if sourceKbps(song) == effective && strings.EqualFold(song.Format, p.cfg.TargetFormat) {
		return Passthrough
	}

	return Transcode
}

func sourceKbps(song catalog.Song) int {
	return int(song.Bitrate / 1000)
}

// Open prepares the stream of song `songID` at no more than `requested`
// kbps. Nothing is read before the stream's WriteTo is called.
//
// The returned stream must always be closed.
func (p *Pipeline) Open(ctx context.Context, songID int64, requested int) (*Stream, error) {
	if requested < MinBitrate || requested > MaxBitrate {
		return nil, fmt.Errorf("%w: %d kbps", ErrInvalidBitrate, requested)
	}

	song, err := p.src.Song(ctx, songID)
	if err != nil {
		return nil, err
	}

	path := song.FullPath()
	info, err := p.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("song %d: %w", songID, ErrSourceMissing)
	} else if err != nil {
		return nil, fmt.Errorf("song %d: %w", songID, err)
	}

	effective := Negotiate(requested, p.cfg.MaxBitrate, sourceKbps(song))
	mode := p.Decide(song, effective)

	logger := log.With().
		Str("session", uuid.New()).
		Int64("song_id", songID).
		Str("mode", mode.String()).
		Int("bitrate", effective).
		Logger()

	stream := &Stream{
		SongID:    songID,
		Mode:      mode,
		Bitrate:   effective,
		Size:      -1,
		chunkSize: p.cfg.ChunkSize,
		ctx:       ctx,
		logger:    logger,
	}

	if mode == Passthrough {
		if err := p.openFile(stream, song, info.Size()); err != nil {
			return nil, err
		}
	} else {
		onSuccess := func(sent int64) {
			p.recordTranscode(ctx, songID, effective, sent, logger)
		}
		enc, err := p.startEncoder(ctx, path, effective, logger, onSuccess)
		if err != nil {
			return nil, err
		}

		stream.src = enc.stdout
		stream.encoder = enc
		stream.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) +
			"." + p.cfg.TargetFormat
		stream.ContentType = AudioContentType(p.cfg.TargetFormat)
	}

	metrics.StreamsTotal.WithLabelValues(mode.String()).Inc()
	logger.Debug().Str("path", path).Msg("stream opened")

	return stream, nil
}

// OpenOriginal prepares the stream of song `songID` as it is stored,
// regardless of its bitrate and format.
func (p *Pipeline) OpenOriginal(ctx context.Context, songID int64) (*Stream, error) {
	song, err := p.src.Song(ctx, songID)
	if err != nil {
		return nil, err
	}

	info, err := p.fs.Stat(song.FullPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("song %d: %w", songID, ErrSourceMissing)
	} else if err != nil {
		return nil, fmt.Errorf("song %d: %w", songID, err)
	}

	stream := &Stream{
		SongID:    songID,
		Mode:      Passthrough,
		Bitrate:   sourceKbps(song),
		chunkSize: p.cfg.ChunkSize,
		ctx:       ctx,
		logger: log.With().
			Str("session", uuid.New()).
			Int64("song_id", songID).
			Str("mode", "download").
			Logger(),
	}
	if err := p.openFile(stream, song, info.Size()); err != nil {
		return nil, err
	}

	metrics.StreamsTotal.WithLabelValues("download").Inc()
	return stream, nil
}

func (p *Pipeline) openFile(stream *Stream, song catalog.Song, size int64) error {
	path := song.FullPath()
	fh, err := p.fs.Open(path)
	if err != nil {
		return fmt.Errorf("opening song %d: %w", song.ID, err)
	}

	stream.src = fh
	stream.Size = size
	stream.Name = filepath.Base(path)
	stream.ContentType = AudioContentType(song.Format)
	return nil
}

func (p *Pipeline) recordTranscode(ctx context.Context, songID int64, bitrate int, size int64, logger zerolog.Logger) {
	err := p.src.RecordTranscode(context.WithoutCancel(ctx), songID, bitrate, size)
	if err != nil {
		logger.Error().Err(err).Msg("recording transcode")
	}
}

var audioTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"opus": "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"wav":  "audio/x-wav",
	"wma":  "audio/x-ms-wma",
	"ape":  "audio/x-monkeys-audio",
	"wv":   "audio/x-wavpack",
}

// AudioContentType returns the content type of an audio format such as
// "mp3" or "flac".
func AudioContentType(format string) string {
	if ct, ok := audioTypes[strings.ToLower(format)]; ok {
		return ct
	}
	return "application/octet-stream"
}
