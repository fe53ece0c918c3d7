package signing

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"

	"github.com/digitorus/pdfsign"
	"software.sslmate.com/src/go-pkcs12"
)

// Native signs in process with an approval signature over SHA-256.
type Native struct {
	location string
	reason   string
	logger   *slog.Logger
}

// NewNative creates a Native signer from a finalized Config.
func NewNative(cfg *Config, logger *slog.Logger) *Native {
	return &Native{
		location: cfg.Location,
		reason:   cfg.Reason,
		logger:   logger.With("system", "signing", "mode", ModeNative),
	}
}

func (s *Native) Sign(ctx context.Context, inputPath string, m Material) ([]byte, error) {
	if !m.Complete() {
		return nil, fmt.Errorf("%w: %w", ErrNotSigned, ErrIncompleteMaterial)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSigned, err)
	}

	signer, cert, chain, err := loadCredential(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSigned, err)
	}

	input, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read input: %w", ErrNotSigned, err)
	}

	doc, err := pdfsign.Open(bytes.NewReader(input), int64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrNotSigned, err)
	}

	sb := doc.Sign(signer, cert, chain...).Reason(s.reason)
	if s.location != "" {
		sb.Location(s.location)
	}

	var buf bytes.Buffer
	if _, err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: write signature: %w", ErrNotSigned, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSigned, err)
	}

	s.logger.Debug("document signed", "subject", cert.Subject.CommonName, "bytes", buf.Len())
	return buf.Bytes(), nil
}

func loadCredential(m Material) (crypto.Signer, *x509.Certificate, []*x509.Certificate, error) {
	data, err := os.ReadFile(m.CredentialPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read credential: %w", err)
	}

	key, cert, chain, err := pkcs12.DecodeChain(data, m.Passphrase)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode credential: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, nil, nil, fmt.Errorf("credential key of type %T cannot sign", key)
	}

	return signer, cert, chain, nil
}
