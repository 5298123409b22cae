// Package domain models citizen civic-issue reports and the pure policy
// around them: hazard classification, duplicate detection, and the read-side
// aggregation views.
//
// # Report lifecycle
//
// A report starts as "pending" and only ever moves forward:
//
//	pending ──approve──▶ in-progress ──resolve──▶ resolved
//	pending ──reject───▶ rejected
//
// "resolved" and "rejected" are terminal. The triage package enforces these
// transitions; this package only defines the vocabulary.
//
// # Duplicate detection
//
// Two reports are duplicates when their locations agree at five decimal
// places (~1.1 m) and they share an issue type, as long as the earlier report
// has not been resolved. A resolved report frees its location for new
// submissions; a rejected one does not, which keeps repeat complaints about a
// refused issue from piling up. See [LocationKey] and [FindDuplicate].
//
// # Hazard classification
//
// Rain turns potholes, manholes, and water leaks into traffic hazards, so
// those types are flagged and escalated to critical priority when the current
// weather reports rain. Dry weather never produces a hazard flag. See
// [IsRainyHazard] and [PriorityFor].
//
// # Time and randomness
//
// Nothing in this package reads the wall clock or the global random source.
// View functions take a clockwork.Clock and fallback generators take a
// [RandomSource], so callers (and tests) pin both.
package domain
