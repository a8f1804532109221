// ABOUTME: Module format tags and decoder selection
// ABOUTME: Maps format tags and file extensions to decoder variants
package tracker

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrParse is wrapped by every decoder parse failure
var ErrParse = errors.New("failed to parse module")

// Format identifies a module format variant
type Format int

const (
	FormatScreamTracker Format = iota
	FormatProtracker
	FormatFasttracker
)

func (f Format) String() string {
	switch f {
	case FormatScreamTracker:
		return "s3m"
	case FormatProtracker:
		return "mod"
	case FormatFasttracker:
		return "xm"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// UnknownFormatError is returned for unrecognized format tags
type UnknownFormatError struct {
	Tag string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown mod format %s", e.Tag)
}

// ParseFormat maps a format tag (extension or MIME type) to a Format
func ParseFormat(tag string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tag)), ".") {
	case "s3m", "audio/x-s3m":
		return FormatScreamTracker, nil
	case "mod", "audio/x-mod":
		return FormatProtracker, nil
	case "xm", "audio/x-xm":
		return FormatFasttracker, nil
	}
	return 0, &UnknownFormatError{Tag: tag}
}

// FormatFromPath picks a format from a file name extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// New returns an empty decoder for the given format
func New(f Format) (Decoder, error) {
	switch f {
	case FormatScreamTracker:
		return NewScreamTracker(), nil
	case FormatProtracker:
		return NewProtracker(), nil
	case FormatFasttracker:
		return NewFasttracker(), nil
	}
	return nil, &UnknownFormatError{Tag: f.String()}
}

// NewForTag combines ParseFormat and New
func NewForTag(tag string) (Decoder, error) {
	f, err := ParseFormat(tag)
	if err != nil {
		return nil, err
	}
	return New(f)
}
