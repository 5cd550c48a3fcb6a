package audio

import (
	"path"
	"path/filepath"
	"strings"

	"narrated-video-pipeline/types"
)

// Store hands out fresh, collision-free narration file locations.
type Store struct {
	dir       string
	urlPrefix string
}

// NewStore allocates files in dir and publishes them under urlPrefix
// (for example "/static/audio").
func NewStore(dir, urlPrefix string) *Store {
	return &Store{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// NewTrack reserves audio_<32 hex>.mp3. Nothing is written yet.
func (s *Store) NewTrack() types.AudioTrack {
	name := types.UniqueName("audio_", ".mp3")
	return types.AudioTrack{
		Path: filepath.Join(s.dir, name),
		URL:  path.Join(s.urlPrefix, name),
	}
}
