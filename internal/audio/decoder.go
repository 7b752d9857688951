package audio

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	apperrors "github.com/jscyril/golang_music_sync/pkg/errors"
)

type decodeFunc func(r io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error)

// decoders maps a lower-case file extension to its decoder. wav and flac
// seek through r when it is an io.Seeker, which every caller here provides.
var decoders = map[string]decodeFunc{
	".mp3": func(r io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(r) },
	".wav": func(r io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(r) },
	".flac": func(r io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(r)
	},
}

// SupportedFormats returns the decodable extensions in sorted order
func SupportedFormats() []string {
	formats := make([]string, 0, len(decoders))
	for ext := range decoders {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

// IsSupported checks if a file format is supported
func IsSupported(filePath string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(filePath))]
	return ok
}

// DecodeAudio decodes r using the decoder for filePath's extension. The
// returned stream owns r.
func DecodeAudio(r io.ReadSeekCloser, filePath string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	decode, ok := decoders[ext]
	if !ok {
		return nil, beep.Format{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidFormat, ext)
	}
	stream, format, err := decode(r)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(filePath), err)
	}
	if stream.Len() <= 0 {
		stream.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: empty stream", filepath.Base(filePath))
	}
	return stream, format, nil
}
