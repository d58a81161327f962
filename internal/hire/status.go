package hire

import (
	"fmt"
	"slices"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
)

// transitions lists the legal moves out of each non-terminal status.
var transitions = map[models.HireStatus][]models.HireStatus{
	models.HirePending:             {models.HireAccepted, models.HireRejected},
	models.HireAccepted:            {models.HireCompletionRequested, models.HireCancelled},
	models.HireCompletionRequested: {models.HireCompleted, models.HireAccepted},
}

// CanTransition reports whether a hire may move from one status to another.
func CanTransition(from, to models.HireStatus) bool {
	return slices.Contains(transitions[from], to)
}

// Terminal reports whether no transition leaves the status.
func Terminal(s models.HireStatus) bool {
	return len(transitions[s]) == 0
}

func transition(h *models.Hire, to models.HireStatus) error {
	if !CanTransition(h.Status, to) {
		return fmt.Errorf("%w: hire is %s and cannot become %s", apperr.ErrInvalidState, h.Status, to)
	}
	h.Status = to
	return nil
}

// Label returns the human status label and subtitle shown in job lists.
func Label(s models.HireStatus) (label, subtitle string) {
	switch s {
	case models.HirePending:
		return "Pending", "Quote sent"
	case models.HireAccepted:
		return "Active", "Job Accepted"
	case models.HireCompletionRequested:
		return "Awaiting Confirmation", "Completion Requested"
	case models.HireCompleted:
		return "Completed", "Job Completed"
	case models.HireRejected:
		return "Rejected", "Request Rejected"
	case models.HireCancelled:
		return "Cancelled", "Cancelled"
	}
	return string(s), ""
}

// Job list filters.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterCompleted = "completed"
)

// statusesFor maps a job list filter onto hire statuses; nil means all.
func statusesFor(filter string) ([]models.HireStatus, error) {
	switch filter {
	case "", FilterAll:
		return nil, nil
	case FilterActive:
		return []models.HireStatus{models.HirePending, models.HireAccepted, models.HireCompletionRequested}, nil
	case FilterCompleted:
		return []models.HireStatus{models.HireCompleted}, nil
	}
	return nil, fmt.Errorf("%w: status must be one of all, active, completed", apperr.ErrBadRequest)
}
