// Package progress computes a presentable breakdown of how far a search
// request has advanced through the agent pipeline.
package progress

import "github.com/trendscout/trendscout/pkg/models"

// Step states as rendered to clients.
const (
	StepPending   = "pending"
	StepActive    = "active"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// Step is one stage of the pipeline.
type Step struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	State string `json:"state"`
}

// DefaultSteps returns the pipeline stages in execution order.
func DefaultSteps() []Step {
	return []Step{
		{ID: "parsing", Label: "Parsing query"},
		{ID: "scraping", Label: "Scraping products"},
		{ID: "analyzing", Label: "Analyzing trends"},
		{ID: "clustering", Label: "Clustering results"},
	}
}

// Report is the rendered progress of one search request.
type Report struct {
	Status  string  `json:"status"`
	Percent float64 `json:"percent"`
	Steps   []Step  `json:"steps"`
}

// Compute renders the progress of a request given its status and the id of
// the step currently running. An unrecognized or empty step id counts as the
// first step, so the percentage can never go negative.
func Compute(status, currentStepID string) Report {
	steps := DefaultSteps()
	idx := stepIndex(steps, currentStepID)
	n := float64(len(steps))

	report := Report{Status: status, Steps: steps}

	switch status {
	case models.StatusCompleted:
		report.Percent = 100
		for i := range report.Steps {
			report.Steps[i].State = StepCompleted
		}
	case models.StatusFailed:
		report.Percent = float64(idx) / n * 100
		for i := range report.Steps {
			switch {
			case i < idx:
				report.Steps[i].State = StepCompleted
			case i == idx:
				report.Steps[i].State = StepFailed
			default:
				report.Steps[i].State = StepPending
			}
		}
	default:
		// Processing: the active step counts as half done.
		report.Percent = (float64(idx) + 0.5) / n * 100
		for i := range report.Steps {
			switch {
			case i < idx:
				report.Steps[i].State = StepCompleted
			case i == idx:
				report.Steps[i].State = StepActive
			default:
				report.Steps[i].State = StepPending
			}
		}
	}

	return report
}

func stepIndex(steps []Step, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return 0
}
