package domain

import (
	"context"
	"log/slog"
)

// ResolveAddress reverse-geocodes a coordinate, degrading to the plain
// "lat, lng" form when no geocoder is configured, the lookup fails, or the
// provider has no result. A submission never blocks on a geocoding outage.
func ResolveAddress(ctx context.Context, lat, lng float64, geocoder Geocoder, logger *slog.Logger) string {
	if geocoder == nil {
		return FallbackAddress(lat, lng)
	}

	address, err := geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", lat,
			"lng", lng,
			"error", err,
		)
		return FallbackAddress(lat, lng)
	}
	if address == "" {
		return FallbackAddress(lat, lng)
	}
	return address
}
