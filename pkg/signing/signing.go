// Package signing applies PKCS#12 digital signatures to PDF files. Signing is
// best-effort by contract: every failure is reported as an error wrapping
// ErrNotSigned so callers can fall back to an unsigned document.
package signing

import (
	"context"
	"log/slog"
	"os"
)

// Mode selects the signing backend.
type Mode string

const (
	// ModeExternal runs a JSignPdf-compatible command line tool.
	ModeExternal Mode = "external"
	// ModeNative signs in process.
	ModeNative Mode = "native"
)

// Signer signs the PDF at inputPath and returns the signed bytes. The input
// file is never modified.
type Signer interface {
	Sign(ctx context.Context, inputPath string, m Material) ([]byte, error)
}

// Material is the credential set of one signer.
type Material struct {
	CredentialPath     string
	Passphrase         string
	SignatureImagePath string
}

// Complete reports whether the material can be used to sign: the credential
// file exists and a passphrase is present.
func (m Material) Complete() bool {
	if m.CredentialPath == "" || m.Passphrase == "" {
		return false
	}
	info, err := os.Stat(m.CredentialPath)
	return err == nil && info.Mode().IsRegular()
}

// HasSignatureImage reports whether the optional signature image is readable.
func (m Material) HasSignatureImage() bool {
	if m.SignatureImagePath == "" {
		return false
	}
	info, err := os.Stat(m.SignatureImagePath)
	return err == nil && info.Mode().IsRegular()
}

// New returns the Signer selected by cfg.Mode.
func New(cfg *Config, logger *slog.Logger) Signer {
	if Mode(cfg.Mode) == ModeNative {
		return NewNative(cfg, logger)
	}
	return NewExternal(cfg, logger)
}
