package patients

import "context"

// System defines the contract for patient storage.
type System interface {
	// GetOrCreate returns the patient registered under the subject's national
	// ID, creating it when absent. Subjects without a national ID always create
	// a new patient.
	GetOrCreate(ctx context.Context, subject Subject) (*Patient, error)
	Find(ctx context.Context, id int64) (*Patient, error)
}
