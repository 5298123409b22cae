package domain

import "context"

// Geocoder resolves coordinates to a human-readable address.
type Geocoder interface {
	// ReverseGeocode converts a coordinate to a display address. An empty
	// string with a nil error means the provider had no result.
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// ImageLocator extracts a GPS position from an uploaded image's embedded
// metadata. ok is false when the image carries no usable GPS tags.
type ImageLocator interface {
	Locate(image []byte) (lat, lng float64, ok bool)
}
