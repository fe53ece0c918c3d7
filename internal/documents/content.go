package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/medsign/pkg/formatting"
	"github.com/JaimeStill/medsign/pkg/layout"
)

// DefaultCID is printed when a certificate omits the diagnosis code.
const DefaultCID = "CID-XXX"

const (
	defaultSubjectName = "Paciente"
	paragraphGap       = 2.0
	examIndent         = 10.0
	examLeading        = 18.0
)

// Draft is a laid-out document together with the text stored on its record.
type Draft struct {
	Content      layout.Content
	Text         string
	DurationDays *int
}

// facts are the display values shared by every kind.
type facts struct {
	req        *Request
	name       string
	nationalID string
	birthDate  string
	issued     time.Time
	loc        *time.Location
}

func newFacts(req *Request, issued time.Time, loc *time.Location) facts {
	if loc == nil {
		loc = time.UTC
	}

	name := formatting.CleanName(req.Name)
	if name == "" {
		name = defaultSubjectName
	}

	var birth string
	if strings.TrimSpace(req.BirthDate) != "" {
		birth = formatting.FormatDate(req.BirthDate)
	}

	return facts{
		req:        req,
		name:       name,
		nationalID: formatting.NationalID(req.NationalID),
		birthDate:  birth,
		issued:     issued.In(loc),
		loc:        loc,
	}
}

func (f facts) emission() string {
	return f.issued.Format(formatting.DateLayout)
}

func (f facts) footer() string {
	return "Data de emissão: " + f.emission()
}

func (f facts) identity(birthLabel string) []string {
	lines := []string{"Paciente: " + f.name}
	if f.nationalID != "" {
		lines = append(lines, "CPF: "+f.nationalID)
	}
	if f.birthDate != "" {
		lines = append(lines, birthLabel+": "+f.birthDate)
	}
	return lines
}

func paragraphs(lines []string) []layout.Block {
	blocks := make([]layout.Block, len(lines))
	for i, line := range lines {
		blocks[i] = layout.Block{Text: line}
		if i > 0 {
			blocks[i].SpaceBefore = paragraphGap
		}
	}
	return blocks
}

func single(c layout.Copy) layout.Content {
	return layout.Content{Copies: []layout.Copy{c}}
}

func certificate(k *Kind, f facts) Draft {
	days := 1
	if f.req.LeaveDays != nil {
		days = *f.req.LeaveDays
	}
	cid := strings.TrimSpace(f.req.CID)
	if cid == "" {
		cid = DefaultCID
	}

	_, last := formatting.ValidityRange(f.issued, days, f.loc)
	issued := f.emission()

	lines := []string{
		fmt.Sprintf("Atesto, para os devidos fins, que %s, portador(a) do CPF nº %s,", f.name, f.nationalID),
		fmt.Sprintf("foi submetido(a) a consulta médica na data de %s.", issued),
		fmt.Sprintf("Diagnóstico (CID): %s.", cid),
		fmt.Sprintf("Deverá permanecer afastado(a) de suas atividades laborativas por %d dia(s),", days),
		"a partir desta data.",
		fmt.Sprintf("Atestado válido de %s até %s.", issued, last.Format(formatting.DateLayout)),
	}

	return Draft{
		Content: single(layout.Copy{
			Title:    k.Title,
			Identity: append(f.identity("Nascimento"), "CID: "+cid),
			Body:     paragraphs(lines),
			Footer:   f.footer(),
		}),
		Text:         strings.Join(lines, "\n"),
		DurationDays: &days,
	}
}

func declaration(k *Kind, f facts) Draft {
	date := f.emission()
	if d := strings.TrimSpace(f.req.AttendanceDate); d != "" {
		date = formatting.FormatDate(d)
	}

	attendance := fmt.Sprintf("compareceu à consulta médica no dia %s", date)
	start := strings.TrimSpace(f.req.StartTime)
	end := strings.TrimSpace(f.req.EndTime)
	if start != "" || end != "" {
		attendance += fmt.Sprintf(", das %s às %s", start, end)
	}

	lines := []string{
		fmt.Sprintf("Declaro, para os devidos fins, que %s,", f.name),
		fmt.Sprintf("portador(a) do CPF nº %s, %s.", f.nationalID, attendance),
	}

	return Draft{
		Content: single(layout.Copy{
			Title:    k.Title,
			Identity: f.identity("Nascimento"),
			Body:     paragraphs(lines),
			Footer:   f.footer(),
		}),
		Text: strings.Join(lines, "\n"),
	}
}

func examOrder(k *Kind, f facts) Draft {
	var items []string
	for _, exam := range f.req.Exams {
		if exam = strings.TrimSpace(exam); exam != "" {
			items = append(items, exam)
		}
	}

	body := make([]layout.Block, 0, len(items)+1)
	for _, exam := range items {
		body = append(body, layout.Block{Text: "- " + exam, Indent: examIndent, Leading: examLeading})
	}

	stored := items
	if other := strings.TrimSpace(f.req.OtherExams); other != "" {
		line := "Outros: " + other
		body = append(body, layout.Block{Text: line, Indent: examIndent, Leading: examLeading})
		stored = append(stored, line)
	}

	return Draft{
		Content: single(layout.Copy{
			Title:    k.Title,
			Identity: f.identity("Nascimento"),
			Body:     body,
			Footer:   f.footer(),
		}),
		Text: strings.Join(stored, "\n"),
	}
}

// prescription issues two labelled copies when the prescription is controlled.
func prescription(k *Kind, f facts) Draft {
	body := []layout.Block{
		{Text: "Prescrição:", Bold: true},
		{Text: f.req.Prescription, SpaceBefore: 3},
	}

	copies := 1
	if f.req.Controlled {
		copies = 2
	}

	content := layout.Content{Copies: make([]layout.Copy, copies)}
	for i := range copies {
		title := k.Title
		if f.req.Controlled {
			title = fmt.Sprintf("%s (Via: %d)", k.Title, i+1)
		}
		content.Copies[i] = layout.Copy{
			Title:    title,
			Identity: f.identity("Data de nascimento"),
			Body:     body,
			Footer:   f.footer(),
		}
	}

	return Draft{
		Content: content,
		Text:    f.req.Prescription,
	}
}
