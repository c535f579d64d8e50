package scanner

import "errors"

var (
	// ErrAlreadyScanning is returned by Rescan when another scan is in
	// progress.
	ErrAlreadyScanning = errors.New("a scan is already running")

	// ErrUnreadableMedia is returned when the tags of an audio file could not
	// be read. Such songs are retried on every following scan.
	ErrUnreadableMedia = errors.New("unreadable media file")
)
