package services

// Stage is a step of the grading pipeline.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageLoadingCriteria Stage = "loading_criteria"
	StageAcquiring       Stage = "acquiring"
	StageCollecting      Stage = "collecting"
	StageEvaluating      Stage = "evaluating"
	StageAggregating     Stage = "aggregating"
	StagePersisting      Stage = "persisting"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// next holds the only legal forward transition of each stage. Any stage but
// Done and Failed may also move to Failed.
var next = map[Stage]Stage{
	StageIdle:            StageLoadingCriteria,
	StageLoadingCriteria: StageAcquiring,
	StageAcquiring:       StageCollecting,
	StageCollecting:      StageEvaluating,
	StageEvaluating:      StageAggregating,
	StageAggregating:     StagePersisting,
	StagePersisting:      StageDone,
}

func (s Stage) CanTransition(to Stage) bool {
	if s.Terminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	return next[s] == to
}

func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}
