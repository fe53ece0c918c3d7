package api

import (
	"github.com/JaimeStill/medsign/internal/documents"
	"github.com/JaimeStill/medsign/internal/patients"
	"github.com/JaimeStill/medsign/internal/physicians"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Physicians physicians.System
	Patients   patients.System
	Documents  documents.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	physiciansSystem := physicians.New(db, runtime.Documents.Paper, runtime.Logger)
	patientsSystem := patients.New(db, runtime.Logger)

	docsSystem := documents.New(documents.Deps{
		Records:       documents.NewRecords(db, runtime.Logger, runtime.Pagination),
		Physicians:    physiciansSystem,
		Patients:      patientsSystem,
		Storage:       runtime.Storage,
		Compositor:    runtime.Compositor,
		Overlay:       runtime.Overlay,
		Signer:        runtime.Signer,
		Logger:        runtime.Logger,
		Pagination:    runtime.Pagination,
		PublicBaseURL: runtime.Documents.PublicBaseURL,
		Location:      runtime.Documents.Location(),
		WorkspaceRoot: runtime.Documents.WorkspaceRoot,
	})

	return &Domain{
		Physicians: physiciansSystem,
		Patients:   patientsSystem,
		Documents:  docsSystem,
	}
}
