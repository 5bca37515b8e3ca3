package pipeline

// Result is the single terminal outcome of a pipeline run. Coverage
// failure is a normal outcome, not an error: Success stays true when
// the pipeline completed with gaps remaining. Gate enforcement is the
// caller's policy.
type Result struct {
	Success        bool
	BeanCount      int
	GapCount       int
	CoveragePassed bool
	ErrorStage     string
	ErrorMessage   string
}

func failure(stage Stage, err error) Result {
	return Result{
		Success:      false,
		ErrorStage:   string(stage),
		ErrorMessage: err.Error(),
	}
}
