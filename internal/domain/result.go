package domain

// OutcomeStatus enumerates what happened to one paper during a run.
type OutcomeStatus string

const (
	StatusNotified OutcomeStatus = "notified"
	StatusFailed   OutcomeStatus = "failed"
	StatusSkipped  OutcomeStatus = "skipped"
)

// Stage identifies the pipeline step where a paper failed.
type Stage string

const (
	StageDownload  Stage = "download"
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StageNotify    Stage = "notify"
)

// PaperOutcome records the fate of a single fetched paper.
type PaperOutcome struct {
	PaperID string
	Title   string
	Status  OutcomeStatus
	Stage   Stage
	Err     error
}

// RunResult aggregates per-paper outcomes for one invocation.
type RunResult struct {
	Outcomes []PaperOutcome
}

// Notified counts papers that were successfully notified.
func (r RunResult) Notified() int {
	return r.count(StatusNotified)
}

// Failed counts papers that failed at some stage.
func (r RunResult) Failed() int {
	return r.count(StatusFailed)
}

// Skipped counts papers that were not selected for processing.
func (r RunResult) Skipped() int {
	return r.count(StatusSkipped)
}

func (r RunResult) count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
