package triage

import "github.com/civicfix/report-service/internal/domain"

// RefusalReason identifies why an operation declined to change state.
// A refusal is an ordinary outcome, not an error; errors are reserved
// for infrastructure failures such as an unreachable store.
type RefusalReason string

const (
	RefusalInvalidInput RefusalReason = "invalid_input"
	RefusalDuplicate    RefusalReason = "duplicate"
	RefusalNotFound     RefusalReason = "not_found"
	RefusalNotAuthority RefusalReason = "not_authority"
	RefusalWrongStatus  RefusalReason = "wrong_status"
)

// Decision is the outcome of a submission or triage operation. When the
// operation succeeds Report holds the resulting state and Events lists
// the side effects that were delivered. When it is refused, Reason and
// Detail say why and Report carries no meaning.
type Decision struct {
	Report *domain.Report
	Events []domain.Event

	Reason RefusalReason
	Detail string

	// DuplicateOf is set on duplicate refusals and names the report
	// that already covers the submitted location.
	DuplicateOf string
}

// Accepted reports whether the operation changed state.
func (d Decision) Accepted() bool { return d.Reason == "" }

func refuse(reason RefusalReason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}
