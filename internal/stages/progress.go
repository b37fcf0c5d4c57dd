package stages

// Progress returns the completion percentage of a sub-stage. Without tasks
// the manually stored percentage is used (0 when unset); otherwise it is the
// share of completed tasks, rounded half up.
func Progress(stored *int, tasks []Task) int {
	if len(tasks) == 0 {
		if stored == nil {
			return 0
		}
		return clampPercent(*stored)
	}
	completed := 0
	for _, t := range tasks {
		if t.Status == StatusCompleted {
			completed++
		}
	}
	return roundHalfUp(100*completed, len(tasks))
}

// StageProgress averages the progress of the given sub-stages; a stage
// without sub-stages is at 0.
func StageProgress(subs []SubStage) int {
	if len(subs) == 0 {
		return 0
	}
	sum := 0
	for _, s := range subs {
		sum += s.Progress
	}
	return roundHalfUp(sum, len(subs))
}

// roundHalfUp computes round(num/den) for non-negative operands.
func roundHalfUp(num, den int) int {
	return (2*num + den) / (2 * den)
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// decorate fills the computed Progress fields of a stage tree.
func decorate(stage *Stage) {
	for i := range stage.SubStages {
		sub := &stage.SubStages[i]
		sub.Progress = Progress(sub.StoredProgress, sub.Tasks)
	}
	stage.Progress = StageProgress(stage.SubStages)
}
