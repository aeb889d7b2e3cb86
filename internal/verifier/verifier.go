package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsline/engine/internal/llm"
	"github.com/opsline/engine/pkg/api"
	"github.com/opsline/engine/pkg/log"
)

// Verifier assembles the final report for a run
type Verifier struct {
	narrator *Narrator
	logger   *slog.Logger
}

// New creates a Verifier narrating with the given client
func New(client llm.Client, logger *slog.Logger) *Verifier {
	return &Verifier{
		narrator: NewNarrator(client, logger),
		logger:   logger,
	}
}

// BuildReport aggregates the run's outcomes, summarizes them, and returns a
// report. The report is always complete; failed steps lower Verified and
// are spelled out in the verification notes
func (v *Verifier) BuildReport(
	ctx context.Context, runID api.RunID, res *api.PlanResult,
) *api.Report {
	view := Aggregate(res)
	summary := v.narrator.Summarize(ctx, res.Plan.Task, view)

	v.logger.Info("report assembled",
		log.RunID(runID),
		"verified", view.Complete,
		"sources", len(view.Citations),
		"failures", len(view.Failed),
	)

	return &api.Report{
		RunID:             runID,
		Task:              res.Plan.Task,
		Summary:           summary,
		Details:           view.ByTool,
		Sources:           view.Citations,
		ExecutionPlan:     res.Plan,
		RawResults:        res.Outcomes,
		Verified:          view.Complete,
		VerificationNotes: verificationNotes(view),
	}
}

func verificationNotes(view *api.AggregatedView) string {
	var notes []string
	for _, failure := range view.Failed {
		notes = append(notes,
			fmt.Sprintf("%s failed: %s", failure.Tool, failure.Error))
	}
	notes = append(notes, view.Advisories...)
	return strings.Join(notes, " | ")
}
