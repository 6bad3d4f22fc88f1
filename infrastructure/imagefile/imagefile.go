// Package imagefile decodes annotation source images from disk.
package imagefile

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"sgdet-annotate/domain/annotation"
)

// Extensions lists the file extensions offered in the open dialog.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}

// Open decodes the image at path, applying EXIF orientation, and returns
// the decoded image along with its metadata. Dimensions are taken from the
// decoded image so EXIF rotation is already accounted for.
func Open(path string) (image.Image, annotation.ImageMeta, error) {
	img, err := load(path)
	if err != nil {
		return nil, annotation.ImageMeta{}, err
	}
	bounds := img.Bounds()
	meta := annotation.ImageMeta{
		Path:   path,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, annotation.ImageMeta{}, fmt.Errorf("image %s: empty dimensions", path)
	}
	return img, meta, nil
}

func load(path string) (image.Image, error) {
	// Registered decoders cover jpeg/png/gif/bmp/tiff and lossy webp.
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", path, err)
	}
	return img, nil
}
