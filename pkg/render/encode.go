package render

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/prodkit/composer/pkg/errors"
)

// Quality used for lossy output encodings.
const lossyQuality = 90

// encodeToFile writes img to path in the given format.
func encodeToFile(path string, img image.Image, ext string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "creating %s", path)
	}
	defer f.Close()

	switch ext {
	case "webp":
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, lossyQuality)
		if err != nil {
			return errors.Wrap(errors.ErrCodeEncode, err, "configuring webp encoder")
		}
		if err := webp.Encode(f, img, opts); err != nil {
			return errors.Wrap(errors.ErrCodeEncode, err, "encoding %s", path)
		}
	case "png":
		if err := png.Encode(f, img); err != nil {
			return errors.Wrap(errors.ErrCodeEncode, err, "encoding %s", path)
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: lossyQuality}); err != nil {
			return errors.Wrap(errors.ErrCodeEncode, err, "encoding %s", path)
		}
	default:
		return errors.New(errors.ErrCodeEncode, "unsupported output extension %q", ext)
	}
	return nil
}
