package compose

import (
	"fmt"

	"github.com/h2non/bimg"
)

// ImageInspector reports the pixel size of a still image.
type ImageInspector interface {
	Size(path string) (width, height int, err error)
}

// BimgInspector decodes image headers with libvips.
type BimgInspector struct{}

func (BimgInspector) Size(path string) (int, int, error) {
	buffer, err := bimg.Read(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read image: %w", err)
	}
	size, err := bimg.NewImage(buffer).Size()
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	return size.Width, size.Height, nil
}

// evenDims rounds both dimensions down to the nearest even number.
func evenDims(w, h int) (int, int) {
	return w &^ 1, h &^ 1
}
