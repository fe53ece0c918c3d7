package documents

import (
	"strings"
	"time"
)

// Kind describes one document type. The pipeline, storage layout, and routes
// are all derived from it.
type Kind struct {
	// Slug names the kind in URLs, e.g. /api/generate-certificate.
	Slug  string
	Title string
	// Table holds the kind's records.
	Table string
	// Tag selects the physician's paper preference and the configured default.
	Tag string
	// Noun completes the verification notice, e.g. "do atestado".
	Noun string

	validate func(req *Request) error
	compose  func(k *Kind, f facts) Draft
}

// Document kinds.
var (
	Certificate = &Kind{
		Slug:     "certificate",
		Title:    "ATESTADO MÉDICO",
		Table:    "certificates",
		Tag:      "ATESTADO",
		Noun:     "do atestado",
		validate: validateCertificate,
		compose:  certificate,
	}
	Declaration = &Kind{
		Slug:    "declaration",
		Title:   "DECLARAÇÃO MÉDICA",
		Table:   "declarations",
		Tag:     "DECLARACAO",
		Noun:    "da declaração",
		compose: declaration,
	}
	ExamOrder = &Kind{
		Slug:     "exam-order",
		Title:    "PEDIDO DE EXAMES",
		Table:    "exam_orders",
		Tag:      "PEDIDO_EXAMES",
		Noun:     "do pedido de exames",
		validate: validateExamOrder,
		compose:  examOrder,
	}
	Prescription = &Kind{
		Slug:    "prescription",
		Title:   "RECEITA MÉDICA",
		Table:   "prescriptions",
		Tag:     "RECEITA",
		Noun:    "da receita",
		compose: prescription,
	}
)

var kinds = []*Kind{Certificate, Declaration, ExamOrder, Prescription}

// Kinds returns every document kind.
func Kinds() []*Kind {
	return kinds
}

// Lookup returns the kind with the given slug.
func Lookup(slug string) (*Kind, error) {
	for _, k := range kinds {
		if k.Slug == slug {
			return k, nil
		}
	}
	return nil, ErrUnknownKind
}

// FilesPrefix is the URL path under which the kind's artifacts are served.
func (k *Kind) FilesPrefix() string {
	return "/" + k.Slug + "-files"
}

// StorageKey is the storage location of an artifact named filename.
func (k *Kind) StorageKey(filename string) string {
	return k.Slug + "/" + filename
}

// Validate rejects requests the kind cannot issue.
func (k *Kind) Validate(req *Request) error {
	if req.IssuerID <= 0 {
		return ErrMissingIssuer
	}
	if k.validate != nil {
		return k.validate(req)
	}
	return nil
}

// Draft validates req and lays out the document as issued at issued in loc.
func (k *Kind) Draft(req *Request, issued time.Time, loc *time.Location) (Draft, error) {
	if err := k.Validate(req); err != nil {
		return Draft{}, err
	}
	return k.compose(k, newFacts(req, issued, loc)), nil
}

func validateCertificate(req *Request) error {
	if req.LeaveDays != nil && *req.LeaveDays < 1 {
		return ErrInvalidLeave
	}
	return nil
}

func validateExamOrder(req *Request) error {
	for _, exam := range req.Exams {
		if strings.TrimSpace(exam) != "" {
			return nil
		}
	}
	return ErrNoExams
}
