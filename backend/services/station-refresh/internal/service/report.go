package service

import (
	"fmt"
	"io"

	"spinroute/backend/services/station-refresh/internal/models"
)

// WriteReport prints the operator-facing summary of a run.
func WriteReport(w io.Writer, s *models.RunSummary) {
	if s.Found == 0 {
		fmt.Fprintln(w, "No stale networks found, nothing to refresh.")
		return
	}

	mode := ""
	if s.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Found %d stale network(s)%s\n", s.Found, mode)

	for _, r := range s.Networks {
		label := r.Name
		if label == "" {
			label = r.SourceID
		}
		switch r.Outcome {
		case models.OutcomeUpdated:
			fmt.Fprintf(w, "  [ok]      %s (%s): %d stations written\n", label, r.SourceID, r.Written)
		case models.OutcomeDryRun:
			fmt.Fprintf(w, "  [dry-run] %s (%s): %d stations would be written\n", label, r.SourceID, r.Fetched)
		case models.OutcomeNoData:
			fmt.Fprintf(w, "  [skip]    %s (%s): no upstream data, 0 stations\n", label, r.SourceID)
		default:
			fmt.Fprintf(w, "  [fail]    %s (%s): %s\n", label, r.SourceID, r.Error)
		}
	}

	fmt.Fprintf(w, "Updated %d/%d networks, %d stations written\n", s.Succeeded, s.Found, s.StationsWritten)
	if s.DryRun {
		fmt.Fprintf(w, "Dry run: no rows written, %d stations would have been written\n", s.StationsPlanned)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "%d network(s) failed to refresh\n", s.Failed)
	}
}
