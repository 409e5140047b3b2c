package service

import "time"

// SLAWindow maps a classification priority to the resolution window promised
// to the citizen.
func SLAWindow(priority int) time.Duration {
	switch {
	case priority >= 9:
		return 4 * time.Hour
	case priority >= 7:
		return 8 * time.Hour
	case priority >= 4:
		return 24 * time.Hour
	default:
		return 72 * time.Hour
	}
}

// SLADeadline computes the deadline for a complaint classified at the given
// time.
func SLADeadline(classifiedAt time.Time, priority int) time.Time {
	return classifiedAt.Add(SLAWindow(priority))
}
