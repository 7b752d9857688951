package audio

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
	"github.com/jscyril/golang_music_sync/api"
)

// ReadInfo reads descriptive tags from the audio file at path. A file
// without tags is described by its base name.
func ReadInfo(path string) (api.TrackInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return api.TrackInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	info := api.TrackInfo{
		ID:       TrackID(path),
		Title:    filepath.Base(path),
		FilePath: path,
	}

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return info, nil
	}
	info.Title = getOrDefault(metadata.Title(), info.Title)
	info.Artist = getOrDefault(metadata.Artist(), "Unknown Artist")
	info.Album = getOrDefault(metadata.Album(), "Unknown Album")
	return info, nil
}

// TrackID derives a stable identifier from a file path
func TrackID(path string) string {
	hash := md5.Sum([]byte(path))
	return fmt.Sprintf("track-%x", hash[:8])
}

func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
