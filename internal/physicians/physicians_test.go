package physicians_test

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/medsign/internal/physicians"
)

func TestCouncilLabel(t *testing.T) {
	tests := []struct {
		name    string
		council *physicians.Council
		legacy  string
		want    string
	}{
		{"council with uf", &physicians.Council{Kind: "crm", Code: "12345", UF: "sp"}, "999", "CRM: 12345-SP"},
		{"council without uf", &physicians.Council{Kind: "CRO", Code: "0000"}, "", "CRO: 0000"},
		{"incomplete council uses legacy", &physicians.Council{Kind: "CRM"}, " 54321 ", "CRM: 54321"},
		{"no council uses legacy", nil, "54321/RJ", "CRM: 54321/RJ"},
		{"nothing registered", nil, "  ", physicians.FallbackLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := physicians.CouncilLabel(tt.council, tt.legacy); got != tt.want {
				t.Errorf("CouncilLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaterial(t *testing.T) {
	dir := t.TempDir()
	pfx := filepath.Join(dir, "medico.pfx")
	if err := os.WriteFile(pfx, []byte("pkcs12"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		p        physicians.Physician
		complete bool
	}{
		{"complete", physicians.Physician{CertificatePath: pfx, CertificatePassphrase: "segredo"}, true},
		{"blank passphrase", physicians.Physician{CertificatePath: pfx, CertificatePassphrase: "  "}, false},
		{"missing certificate", physicians.Physician{CertificatePath: filepath.Join(dir, "none.pfx"), CertificatePassphrase: "x"}, false},
		{"nothing stored", physicians.Physician{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Material().Complete(); got != tt.complete {
				t.Errorf("Complete() = %v, want %v", got, tt.complete)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{physicians.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("find: %w", physicians.ErrNotFound), http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := physicians.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
