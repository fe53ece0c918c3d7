package signing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	signedSuffix = "_signed"
	waitDelay    = 2 * time.Second
)

// External invokes a JSignPdf-compatible tool. Each call runs in its own
// temporary directory holding a copy of the input, so concurrent calls never
// observe each other's output.
type External struct {
	command  string
	args     []string
	timeout  time.Duration
	workRoot string
	logger   *slog.Logger
}

// NewExternal creates an External signer from a finalized Config.
func NewExternal(cfg *Config, logger *slog.Logger) *External {
	return &External{
		command:  cfg.Command,
		args:     slices.Clone(cfg.Args),
		timeout:  cfg.TimeoutDuration(),
		workRoot: cfg.WorkRoot,
		logger:   logger.With("system", "signing", "mode", ModeExternal),
	}
}

func (s *External) Sign(ctx context.Context, inputPath string, m Material) ([]byte, error) {
	if !m.Complete() {
		return nil, fmt.Errorf("%w: %w", ErrNotSigned, ErrIncompleteMaterial)
	}

	workdir, err := os.MkdirTemp(s.workRoot, "sign-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create workdir: %w", ErrNotSigned, err)
	}
	defer func() {
		if err := os.RemoveAll(workdir); err != nil {
			s.logger.Warn("remove signing workdir failed", "workdir", workdir, "error", err)
		}
	}()

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	staged := filepath.Join(workdir, stem+".pdf")
	if err := copyFile(inputPath, staged); err != nil {
		return nil, fmt.Errorf("%w: stage input: %w", ErrNotSigned, err)
	}

	if err := s.run(ctx, workdir, m, staged); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSigned, err)
	}

	out, err := locateOutput(workdir, stem, staged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSigned, err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %w", ErrNotSigned, err)
	}

	return data, nil
}

func (s *External) run(ctx context.Context, workdir string, m Material, staged string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(slices.Clone(s.args),
		"-kst", "PKCS12",
		"-ksf", m.CredentialPath,
		"-ksp", m.Passphrase,
		"-d", workdir,
		"-os", signedSuffix,
		staged,
	)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.Dir = workdir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()

	s.logger.Debug("signer finished",
		"command", s.command,
		"duration", time.Since(start),
		"stdout", strings.TrimSpace(stdout.String()),
	)
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		s.logger.Warn("signer stderr", "stderr", msg)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("signer timed out after %s", s.timeout)
	}
	if err != nil {
		return fmt.Errorf("run signer: %w", err)
	}
	return nil
}

// locateOutput finds the signed file: the expected name first, then the most
// recently modified *_signed.pdf in workdir. The staged input is never a match.
func locateOutput(workdir, stem, staged string) (string, error) {
	expected := filepath.Join(workdir, stem+signedSuffix+".pdf")
	if info, err := os.Stat(expected); err == nil && info.Mode().IsRegular() {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(workdir, "*"+signedSuffix+".pdf"))
	if err != nil {
		return "", err
	}

	var (
		newest  string
		newTime time.Time
	)
	for _, path := range matches {
		if path == staged {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if newest == "" || info.ModTime().After(newTime) {
			newest = path
			newTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", ErrOutputNotFound
	}
	return newest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
