// Package exifgps extracts a GPS position from the EXIF metadata of an
// uploaded photo. Most phone cameras geotag by default, which makes the
// photo itself the most trustworthy location signal a submission carries.
package exifgps

import (
	"bytes"
	"log/slog"

	"github.com/rwcarlsen/goexif/exif"
)

// Locator implements domain.ImageLocator over EXIF GPS tags.
type Locator struct {
	logger *slog.Logger
}

func NewLocator(logger *slog.Logger) *Locator {
	return &Locator{logger: logger}
}

// Locate returns the coordinate embedded in the image, or ok=false when the
// image has no parseable EXIF block or no GPS tags. Both are everyday cases
// (screenshots, stripped metadata), so neither is treated as an error.
func (l *Locator) Locate(image []byte) (lat, lng float64, ok bool) {
	meta, err := exif.Decode(bytes.NewReader(image))
	if err != nil {
		return 0, 0, false
	}

	lat, lng, err = meta.LatLong()
	if err != nil {
		return 0, 0, false
	}
	l.logger.Debug("photo GPS tags found", "lat", lat, "lng", lng)
	return lat, lng, true
}
