// Package physicians reads issuing physicians together with their council
// registrations, letterheads, and paper preferences.
package physicians

import (
	"strings"

	"github.com/JaimeStill/medsign/pkg/layout"
	"github.com/JaimeStill/medsign/pkg/signing"
)

// FallbackLabel is shown when a physician has no council registration.
const FallbackLabel = "Registro profissional"

// Physician is an issuer of medical documents.
type Physician struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// CRM is the legacy registration code kept on the physician row.
	CRM                   string `json:"crm"`
	CertificatePath       string `json:"-"`
	CertificatePassphrase string `json:"-"`
	SignatureImagePath    string `json:"-"`
}

// Material returns the signing material stored for the physician.
func (p *Physician) Material() signing.Material {
	return signing.Material{
		CredentialPath:     p.CertificatePath,
		Passphrase:         strings.TrimSpace(p.CertificatePassphrase),
		SignatureImagePath: p.SignatureImagePath,
	}
}

// Council is a professional council registration such as CRM or CRO.
type Council struct {
	Kind string
	Code string
	UF   string
}

// Label formats the registration as "CRM: 12345-SP".
func (c Council) Label() string {
	kind := strings.ToUpper(strings.TrimSpace(c.Kind))
	code := strings.TrimSpace(c.Code)
	if kind == "" || code == "" {
		return ""
	}

	label := kind + ": " + code
	if uf := strings.ToUpper(strings.TrimSpace(c.UF)); uf != "" {
		label += "-" + uf
	}
	return label
}

// CouncilLabel picks the newest council registration, then the legacy CRM
// code, then FallbackLabel.
func CouncilLabel(council *Council, legacyCRM string) string {
	if council != nil {
		if label := council.Label(); label != "" {
			return label
		}
	}
	if crm := strings.TrimSpace(legacyCRM); crm != "" {
		return "CRM: " + crm
	}
	return FallbackLabel
}

// Paper is the resolved page size and optional letterhead for a document.
type Paper struct {
	Size       layout.Size `json:"size"`
	Letterhead string      `json:"letterhead,omitempty"`
}

// PaperDefaults returns the configured default size for a document tag.
type PaperDefaults func(tag string) layout.Size

// cleanPath strips the quoting and stray line breaks that hand-entered
// file paths tend to carry.
func cleanPath(p string) string {
	p = strings.NewReplacer("\r", "", "\n", "").Replace(p)
	return strings.Trim(strings.TrimSpace(p), `"'`)
}
