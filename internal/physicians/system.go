package physicians

import "context"

// System defines the read operations the issuing pipeline needs.
type System interface {
	Find(ctx context.Context, id int64) (*Physician, error)

	// CouncilLabel never fails; lookup errors fall back to the legacy CRM.
	CouncilLabel(ctx context.Context, p *Physician) string

	// Paper resolves the page size for tag and the active letterhead for
	// that size. Lookup errors fall back to configured defaults.
	Paper(ctx context.Context, physicianID int64, tag string) Paper
}
