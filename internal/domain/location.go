package domain

import "fmt"

// LocationKey collapses a coordinate to five decimal places (~1.1 m), the
// resolution at which two reports are considered to be about the same spot.
func LocationKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

// FindDuplicate returns the first non-resolved report of the same type at the
// same location key, or nil. A resolved report frees its location for new
// submissions.
func FindDuplicate(reports []Report, lat, lng float64, t IssueType) *Report {
	key := LocationKey(lat, lng)
	for i := range reports {
		r := &reports[i]
		if r.Status == StatusResolved {
			continue
		}
		if r.Type == t && LocationKey(r.Location.Lat, r.Location.Lng) == key {
			return r
		}
	}
	return nil
}

// demoCity is a fixed fallback coordinate used when live geolocation is
// unavailable or denied.
type demoCity struct {
	name     string
	lat, lng float64
}

var demoCities = []demoCity{
	{"New Delhi", 28.6139, 77.2090},
	{"Mumbai", 19.0760, 72.8777},
	{"Bangalore", 12.9716, 77.5946},
	{"Kolkata", 22.5726, 88.3639},
	{"Chennai", 13.0827, 80.2707},
}

// DemoLocation picks one of five fixed Indian-city coordinates and jitters it
// by up to ±0.025° so repeated fallbacks do not stack on the exact same spot.
func DemoLocation(r RandomSource) (lat, lng float64) {
	city := demoCities[r.IntN(len(demoCities))]
	lat = city.lat + (r.Float64()-0.5)*0.05
	lng = city.lng + (r.Float64()-0.5)*0.05
	return lat, lng
}

// FallbackAddress renders a coordinate as "lat, lng" when reverse geocoding
// is unavailable.
func FallbackAddress(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}
