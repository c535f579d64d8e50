package scanner

import (
	"bytes"
	"errors"
	"io"
	"time"
)

// mpegSearchWindow is how far after the ID3v2 tag the first frame header
// is looked for.
const mpegSearchWindow = 64 << 10

var errNoMPEGFrame = errors.New("no mpeg frame header found")

// Bitrates in kbps by bitrate index. Index 0 is "free" and 15 is invalid.
var (
	mpeg1Bitrates = [3][16]int{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, -1},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, -1},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, -1},
	}
	mpeg2Bitrates = [3][16]int{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, -1},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, -1},
	}
)

// mpegFrame is the part of an MPEG audio frame header needed for finding
// the stream bitrate.
type mpegFrame struct {
	mpeg1 bool
	layer int

	// kbps is the bitrate written in the header.
	kbps int
	mono bool
}

// parseMPEGFrame decodes the four header bytes at the start of `b`.
func parseMPEGFrame(b []byte) (mpegFrame, bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return mpegFrame{}, false
	}

	version := (b[1] >> 3) & 0x03
	layerBits := (b[1] >> 1) & 0x03
	bitrateIndex := b[2] >> 4
	sampleRateIndex := (b[2] >> 2) & 0x03

	if version == 0x01 || layerBits == 0 || bitrateIndex == 0x0F || sampleRateIndex == 0x03 {
		return mpegFrame{}, false
	}

	frame := mpegFrame{
		mpeg1: version == 0x03,
		layer: 4 - int(layerBits),
		mono:  b[3]>>6 == 0x03,
	}

	if frame.mpeg1 {
		frame.kbps = mpeg1Bitrates[frame.layer-1][bitrateIndex]
	} else {
		frame.kbps = mpeg2Bitrates[frame.layer-1][bitrateIndex]
	}

	return frame, true
}

// sideInfoSize is the length of the layer III side information which
// follows the frame header. The Xing header is written right after it.
func (f mpegFrame) sideInfoSize() int {
	switch {
	case f.mpeg1 && f.mono:
		return 17
	case f.mpeg1:
		return 32
	case f.mono:
		return 9
	default:
		return 17
	}
}

// id3v2Size returns the length of the ID3v2 tag at the start of `head`
// including its header and footer. Zero when there is no tag.
func id3v2Size(head []byte) int64 {
	if len(head) < 10 || !bytes.HasPrefix(head, []byte("ID3")) {
		return 0
	}

	size := int64(head[6]&0x7F)<<21 | int64(head[7]&0x7F)<<14 |
		int64(head[8]&0x7F)<<7 | int64(head[9]&0x7F)
	size += 10
	if head[5]&0x10 != 0 {
		size += 10
	}
	return size
}

// streamBitrate returns the bitrate in bits per second of the MPEG audio
// stream in `r`. For constant bitrate streams this is the bitrate of the
// first frame. Streams with a Xing or VBRI header get the average of the
// audio bytes over `duration`, tags excluded.
func streamBitrate(r io.ReadSeeker, size int64, duration time.Duration) (int64, error) {
	head := make([]byte, 10)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(r, head); err != nil {
		return 0, err
	}

	audioStart := id3v2Size(head)
	if _, err := r.Seek(audioStart, io.SeekStart); err != nil {
		return 0, err
	}

	window := make([]byte, mpegSearchWindow)
	n, err := io.ReadFull(r, window)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}
	window = window[:n]

	for i := 0; i+4 <= len(window); i++ {
		frame, ok := parseMPEGFrame(window[i:])
		if !ok || frame.kbps <= 0 {
			continue
		}

		if !isVBR(window[i:], frame) {
			return int64(frame.kbps) * 1000, nil
		}

		audioBytes := size - audioStart - int64(i)
		if hasID3v1(r, size) {
			audioBytes -= 128
		}
		if duration <= 0 || audioBytes <= 0 {
			return 0, nil
		}
		return int64(float64(audioBytes*8) / duration.Seconds()), nil
	}

	return 0, errNoMPEGFrame
}

// isVBR tells whether the frame at the start of `b` carries a Xing or
// VBRI header. LAME writes "Info" in place of "Xing" for CBR files.
func isVBR(b []byte, frame mpegFrame) bool {
	if frame.layer != 3 {
		return false
	}

	xing := 4 + frame.sideInfoSize()
	if len(b) >= xing+4 && string(b[xing:xing+4]) == "Xing" {
		return true
	}

	const vbri = 4 + 32
	return len(b) >= vbri+4 && string(b[vbri:vbri+4]) == "VBRI"
}

func hasID3v1(r io.ReadSeeker, size int64) bool {
	if size < 128 {
		return false
	}
	if _, err := r.Seek(size-128, io.SeekStart); err != nil {
		return false
	}

	marker := make([]byte, 3)
	if _, err := io.ReadFull(r, marker); err != nil {
		return false
	}
	return string(marker) == "TAG"
}
