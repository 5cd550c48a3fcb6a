package types

// AssetKind distinguishes still images from video clips in the catalog.
type AssetKind string

const (
	KindImage AssetKind = "image"
	KindVideo AssetKind = "video"
)

// Asset is one catalog entry. Path is the public URL under the static prefix.
type Asset struct {
	Kind AssetKind `json:"kind"`
	Path string    `json:"path"`
}

// AudioTrack is a synthesized narration file. Its duration is always probed.
type AudioTrack struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Generation is what the selector returns for one prompt
type Generation struct {
	Script string     `json:"script"`
	Audio  AudioTrack `json:"audio"`
	Images []Asset    `json:"images"`
	Videos []Asset    `json:"videos"`
}

// Composition holds the inputs of one compose call.
// Exactly one of ImagePath and VideoPath is set.
type Composition struct {
	AudioPath string `json:"audio_path"`
	ImagePath string `json:"image_path"`
	VideoPath string `json:"video_path"`
	Script    string `json:"script"`
}

// VisualPath returns whichever visual input is set.
func (c Composition) VisualPath() string {
	if c.VideoPath != "" {
		return c.VideoPath
	}
	return c.ImagePath
}

// IsVideo reports whether the composition runs in video mode.
func (c Composition) IsVideo() bool {
	return c.VideoPath != ""
}

// OutputVideo is the finished file
type OutputVideo struct {
	Path     string  `json:"path"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

// Paths returns the public URLs of a list of assets.
func Paths(assets []Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Path
	}
	return out
}
