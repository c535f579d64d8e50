package scanner

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/spf13/afero"
	taglib "github.com/wtolson/go-taglib"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . TagReader

// TagReader reads the tags and the audio properties of a single file.
type TagReader interface {
	// ReadTags reads the file at the absolute path `path`.
	ReadTags(path string) (Tags, error)
}

// Tags is what a TagReader found in a file. Track and Year are the raw tag
// values, e.g. "3/12" and "2004-05-01".
type Tags struct {
	Title  string
	Artist string
	Album  string
	Genre  string
	Track  string
	Year   string

	Duration time.Duration

	// Bitrate is in bits per second. Zero when unknown.
	Bitrate int64
}

// Readers selects a TagReader by the container format of a song.
type Readers struct {
	MP3      TagReader
	Lossless TagReader
	Generic  TagReader
}

// DefaultReaders returns the readers used for real files on `fs`.
func DefaultReaders(fs afero.Fs) Readers {
	return Readers{
		MP3:      &id3Reader{fs: fs},
		Lossless: &taglibReader{},
		Generic:  &genericReader{fs: fs},
	}
}

// For returns the reader for songs stored in `format`.
func (r Readers) For(format string) TagReader {
	switch format {
	case "mp3":
		return r.MP3
	case "flac":
		return r.Lossless
	default:
		return r.Generic
	}
}

// id3Reader reads ID3v2 tags with a fallback to ID3v1. The duration comes
// from decoding the MPEG frames and the bitrate from the frame headers.
type id3Reader struct {
	fs afero.Fs
}

func (r *id3Reader) ReadTags(path string) (Tags, error) {
	fh, err := r.fs.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer fh.Close()

	md, err := tag.ReadID3v2Tags(fh)
	if err != nil {
		if _, seekErr := fh.Seek(0, io.SeekStart); seekErr != nil {
			return Tags{}, seekErr
		}
		md, err = tag.ReadID3v1Tags(fh)
	}
	if err != nil {
		return Tags{}, fmt.Errorf("reading id3 tags: %w", err)
	}

	tags := fromMetadata(md)

	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		return Tags{}, err
	}
	dec, err := mp3.NewDecoder(fh)
	if err != nil {
		return Tags{}, fmt.Errorf("decoding mp3: %w", err)
	}

	// go-mp3 always decodes to 16 bit stereo.
	const bytesPerSample = 4
	if samples := dec.Length() / bytesPerSample; samples > 0 && dec.SampleRate() > 0 {
		tags.Duration = time.Duration(samples) * time.Second / time.Duration(dec.SampleRate())
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		return Tags{}, err
	}

	// An unknown bitrate is not fatal. The song is still playable.
	if bitrate, err := streamBitrate(fh, info.Size(), tags.Duration); err == nil {
		tags.Bitrate = bitrate
	}

	return tags, nil
}

// taglibReader uses TagLib. It is used for lossless files where it reads
// both the tags and the stream properties.
type taglibReader struct{}

func (r *taglibReader) ReadTags(path string) (Tags, error) {
	file, err := taglib.Read(path)
	if err != nil {
		return Tags{}, fmt.Errorf("taglib: %w", err)
	}
	defer file.Close()

	tags := Tags{
		Title:    file.Title(),
		Artist:   file.Artist(),
		Album:    file.Album(),
		Genre:    file.Genre(),
		Duration: file.Length(),
		Bitrate:  int64(file.Bitrate()) * 1000,
	}

	if track := file.Track(); track > 0 {
		tags.Track = strconv.Itoa(track)
	}
	if year := file.Year(); year > 0 {
		tags.Year = strconv.Itoa(year)
	}

	return tags, nil
}

// genericReader reads whatever tag format dhowden/tag recognizes. For WAVE
// files, which usually carry no tags at all, it reads the duration from the
// RIFF header.
type genericReader struct {
	fs afero.Fs
}

func (r *genericReader) ReadTags(path string) (Tags, error) {
	fh, err := r.fs.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer fh.Close()

	var tags Tags
	md, tagErr := tag.ReadFrom(fh)
	if tagErr == nil {
		tags = fromMetadata(md)
	}

	if extension(path) == "wav" {
		if _, err := fh.Seek(0, io.SeekStart); err != nil {
			return Tags{}, err
		}

		dec := wav.NewDecoder(fh)
		if !dec.IsValidFile() {
			return Tags{}, errors.New("invalid wave file")
		}

		if tags.Duration, err = dec.Duration(); err != nil {
			return Tags{}, fmt.Errorf("wave duration: %w", err)
		}
		tags.Bitrate = int64(dec.AvgBytesPerSec) * 8

		if errors.Is(tagErr, tag.ErrNoTagsFound) {
			tagErr = nil
		}
	}

	if tagErr != nil {
		return Tags{}, fmt.Errorf("reading tags: %w", tagErr)
	}

	return tags, nil
}

func fromMetadata(md tag.Metadata) Tags {
	tags := Tags{
		Title:  md.Title(),
		Artist: md.Artist(),
		Album:  md.Album(),
		Genre:  md.Genre(),
	}

	if tags.Artist == "" {
		tags.Artist = md.AlbumArtist()
	}

	raw := md.Raw()
	tags.Track = rawText(raw, "TRCK", "TRK", "tracknumber", "trkn")
	if tags.Track == "" {
		if track, _ := md.Track(); track > 0 {
			tags.Track = strconv.Itoa(track)
		}
	}

	tags.Year = rawText(raw, "TDRC", "TYER", "TYE", "date", "year")
	if tags.Year == "" && md.Year() > 0 {
		tags.Year = strconv.Itoa(md.Year())
	}

	return tags
}

// rawText returns the first of `keys` which has a text value in `raw`.
func rawText(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if val, ok := raw[key].(string); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// parseTrack returns the leading run of digits of a track tag. Any "/N"
// total suffix is ignored. Returns -1 when there is no number.
func parseTrack(track string) int64 {
	track = strings.TrimSpace(track)
	end := 0
	for end < len(track) && track[end] >= '0' && track[end] <= '9' {
		end++
	}

	num, err := strconv.ParseInt(track[:end], 10, 64)
	if err != nil {
		return -1
	}
	return num
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// parseYear returns the first 4 digit year found in `year` or -1.
func parseYear(year string) int64 {
	match := yearPattern.FindString(year)
	if match == "" {
		return -1
	}

	num, _ := strconv.ParseInt(match, 10, 64)
	return num
}
