// Package documents implements the issuing pipeline for medical documents.
// Every document kind runs through the same pipeline: the request is recorded,
// laid out over the physician's letterhead, stamped and signed when signing
// material is available, and stored.
package documents

import (
	"time"

	"github.com/JaimeStill/medsign/internal/patients"
)

// Document statuses.
const (
	StatusPending  = "pending"
	StatusSigned   = "signed"
	StatusUnsigned = "unsigned"
	StatusFailed   = "failed"
)

// PendingPath marks a record whose artifact has not been stored yet.
const PendingPath = "PENDING"

// UnsignedNotice accompanies documents issued without a digital signature.
const UnsignedNotice = "Assinatura manual/carimbo necessário"

// Document is an issued document record.
type Document struct {
	ID                int64      `json:"id"`
	Kind              string     `json:"kind"`
	IssuerID          int64      `json:"issuer_id"`
	IssuerName        *string    `json:"issuer_name"`
	SubjectID         int64      `json:"subject_id"`
	SubjectName       *string    `json:"subject_name"`
	SubjectNationalID *string    `json:"subject_national_id"`
	Text              string     `json:"text"`
	DurationDays      *int       `json:"duration_days"`
	EmissionDate      time.Time  `json:"emission_date"`
	Path              string     `json:"path"`
	SignedAt          *time.Time `json:"signed_at"`
	Status            string     `json:"status"`
	PageCount         *int       `json:"page_count"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Request is the JSON body of a generate call. Fields that do not apply to
// the requested kind are ignored.
type Request struct {
	IssuerID int64 `json:"medico_id"`
	patients.Subject

	// Certificate.
	CID       string `json:"cid"`
	LeaveDays *int   `json:"dias_afastamento"`

	// Declaration.
	AttendanceDate string `json:"data_declaracao"`
	StartTime      string `json:"hora_inicio"`
	EndTime        string `json:"hora_fim"`

	// Exam order.
	Exams      []string `json:"lista_exames"`
	OtherExams string   `json:"outros_exames"`

	// Prescription.
	Prescription string `json:"receita_texto"`
	Controlled   bool   `json:"receita_controlada"`
}

// Result is the response envelope of a generate call.
type Result struct {
	Status          string `json:"status"`
	ID              int64  `json:"id"`
	Kind            string `json:"kind"`
	Signed          bool   `json:"signed"`
	PublicURL       string `json:"publicUrl"`
	VerificationURL string `json:"verificationUrl"`
	StoredPath      string `json:"storedPath"`
	Notice          string `json:"notice,omitempty"`

	// Filename and PDF carry the artifact for clients that ask for it directly.
	Filename string `json:"-"`
	PDF      []byte `json:"-"`
}

// Verification is everything the public verification page shows.
type Verification struct {
	Document     *Document
	Kind         *Kind
	Issuer       string
	CouncilLabel string
	// SignatureImage is the issuer's signature image, or nil when unreadable.
	SignatureImage []byte
	// FileURL links the stored artifact, empty while pending.
	FileURL string
}
