package domain

// rainyHazardTypes are the issue types that become dangerous in rain: water
// masks potholes and open manholes, and leaks worsen.
var rainyHazardTypes = map[IssueType]bool{
	IssuePothole:   true,
	IssueManhole:   true,
	IssueWaterLeak: true,
}

// IsRainyHazard reports whether a report of the given type constitutes a
// hazard under the given weather. Dry weather never yields a hazard.
func IsRainyHazard(t IssueType, w Weather) bool {
	return w.IsRaining && rainyHazardTypes[t]
}

// PriorityFor derives a new report's priority: hazards are critical, open
// manholes are high even when dry, everything else starts medium.
func PriorityFor(t IssueType, hazard bool) Priority {
	switch {
	case hazard:
		return PriorityCritical
	case t == IssueManhole:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
