// Package jobs normalizes long-running backend jobs into a small state
// machine the rest of the wizard can observe.
//
// The Bridge tracks at most one job per kind (CUT, SAFETY). Push events and
// pull refetches feed the same transition logic, so either delivery path
// produces the same stage outcome. Events for jobs that are no longer
// tracked (earlier generations superseded by a regenerate) are rejected by
// job id; duplicate terminal events are no-ops.
//
// On success the bridge performs exactly one follow-up fetch of the produced
// artifact (the clip list for CUT, the safety report for SAFETY) and only
// then reports the stage completed. A failed follow-up fetch is reported as
// a failure distinct from the job's own failure.
package jobs
