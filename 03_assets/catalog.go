package assets

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"narrated-video-pipeline/types"
)

// Catalog is the fixed pool of selectable images and videos. It is built
// once from configuration and never mutated, so it is safe to share.
type Catalog struct {
	images []types.Asset
	videos []types.Asset
}

// NewCatalog copies the given public paths into a catalog. Blank and
// repeated entries are dropped so a sample can never contain duplicates.
func NewCatalog(images, videos []string) *Catalog {
	return &Catalog{
		images: toAssets(types.KindImage, images),
		videos: toAssets(types.KindVideo, videos),
	}
}

func toAssets(kind types.AssetKind, paths []string) []types.Asset {
	paths = lo.Uniq(lo.Filter(lo.Map(paths, func(p string, _ int) string {
		return strings.TrimSpace(p)
	}), func(p string, _ int) bool {
		return p != ""
	}))
	return lo.Map(paths, func(p string, _ int) types.Asset {
		return types.Asset{Kind: kind, Path: p}
	})
}

func (c *Catalog) Images() []types.Asset { return append([]types.Asset(nil), c.images...) }
func (c *Catalog) Videos() []types.Asset { return append([]types.Asset(nil), c.videos...) }

func (c *Catalog) entries(kind types.AssetKind) []types.Asset {
	if kind == types.KindVideo {
		return c.videos
	}
	return c.images
}

// Len reports how many assets of a kind the catalog holds.
func (c *Catalog) Len(kind types.AssetKind) int {
	return len(c.entries(kind))
}

// Sample draws n distinct assets of one kind, uniformly at random.
func (c *Catalog) Sample(rng *rand.Rand, kind types.AssetKind, n int) ([]types.Asset, error) {
	pool := c.entries(kind)
	if n < 0 || len(pool) < n {
		return nil, fmt.Errorf("need %d %ss, catalog has %d: %w", n, kind, len(pool), types.ErrInsufficientAssets)
	}

	// partial Fisher-Yates over a copy
	picked := append([]types.Asset(nil), pool...)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:n], nil
}

// Validate logs catalog entries that do not resolve to an existing file and
// returns how many there were. Missing files are not fatal; the catalog is
// deployed separately from the binary.
func (c *Catalog) Validate(resolve func(string) (string, error)) int {
	missing := 0
	for _, a := range append(c.Images(), c.Videos()...) {
		p, err := resolve(a.Path)
		if err == nil {
			_, err = os.Stat(p)
		}
		if err != nil {
			missing++
			log.Warn().Str("stage", "assets").Str("asset", a.Path).Err(err).Msg("catalog entry not found")
		}
	}
	return missing
}

// Picker samples images and videos for one generation. The rand source is
// injectable so tests can pin selections.
type Picker struct {
	catalog *Catalog
	count   int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a Picker drawing count of each kind. A nil rng is seeded
// from the clock.
func NewPicker(catalog *Catalog, count int, rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Picker{catalog: catalog, count: count, rng: rng}
}

// Pick returns count images and count videos, each without replacement.
func (p *Picker) Pick() (images, videos []types.Asset, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	images, err = p.catalog.Sample(p.rng, types.KindImage, p.count)
	if err != nil {
		return nil, nil, err
	}
	videos, err = p.catalog.Sample(p.rng, types.KindVideo, p.count)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Str("stage", "assets").
		Strs("images", types.Paths(images)).
		Strs("videos", types.Paths(videos)).
		Msg("picked assets")
	return images, videos, nil
}

// ResolveUnder maps a public URL under prefix to a file inside root.
// Paths that escape root are rejected.
func ResolveUnder(root, prefix, publicPath string) (string, error) {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	if !strings.HasPrefix(publicPath, prefix) {
		return "", fmt.Errorf("%q is not under %s", publicPath, prefix)
	}
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(publicPath, prefix)))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q escapes %s", publicPath, prefix)
	}
	return filepath.Join(root, rel), nil
}
