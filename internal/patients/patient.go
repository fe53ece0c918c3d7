// Package patients stores the subjects of issued documents. Patients are
// created on first use and reused by national ID afterwards.
package patients

import (
	"strings"
	"time"

	"github.com/JaimeStill/medsign/pkg/formatting"
)

// Patient is a stored document subject.
type Patient struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	NationalID *string    `json:"national_id"`
	BirthDate  *time.Time `json:"birth_date"`
	Sex        *string    `json:"sex"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Subject carries the patient fields submitted with a document request.
type Subject struct {
	Name       string `json:"nome_paciente"`
	NationalID string `json:"cpf_paciente"`
	BirthDate  string `json:"data_nascimento"`
	Sex        string `json:"sexo"`
}

// Normalize cleans the name, keeps only the digits of the national ID, and
// rewrites the birth date as YYYY-MM-DD. Birth dates that cannot be parsed
// are dropped.
func (s Subject) Normalize() Subject {
	n := Subject{
		Name:       formatting.CleanName(s.Name),
		NationalID: formatting.Digits(s.NationalID),
		Sex:        strings.ToUpper(strings.TrimSpace(s.Sex)),
	}
	if d := formatting.SQLDate(s.BirthDate); d != "" {
		if _, err := time.Parse(time.DateOnly, d); err == nil {
			n.BirthDate = d
		}
	}
	return n
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
