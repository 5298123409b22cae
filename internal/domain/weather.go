package domain

import "context"

// Weather is the current condition at a coordinate, reduced to what hazard
// classification needs plus the fields shown to users.
type Weather struct {
	IsRaining   bool   `json:"isRaining"`
	Temperature int    `json:"temperature"` // °C
	Description string `json:"description"`
	Humidity    int    `json:"humidity"` // percent
}

// WeatherSource reports current weather for a coordinate.
type WeatherSource interface {
	Current(ctx context.Context, lat, lng float64) (Weather, error)
}

// SimulateWeather produces a plausible local forecast when no external
// weather source is configured or reachable: 30% chance of rain, temperature
// 20–34°C, humidity 60–89%. Deterministic under a scripted RandomSource.
func SimulateWeather(r RandomSource) Weather {
	isRaining := r.Float64() > 0.7
	description := "partly cloudy"
	if isRaining {
		description = "light rain"
	}
	return Weather{
		IsRaining:   isRaining,
		Temperature: 20 + r.IntN(15),
		Description: description,
		Humidity:    60 + r.IntN(30),
	}
}
