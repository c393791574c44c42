package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
)

// Template names.
const (
	TemplateJobDigest           = "job"
	TemplateInterviewInvitation = "interview-invitation"
	TemplateInterviewPassed     = "interview-passed"
	TemplateInterviewFailed     = "interview-failed"
	TemplateRejected            = "rejected"
	TemplateHired               = "hired"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded templates.
type Renderer struct {
	tpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tpl, err := template.New("mail").Funcs(template.FuncMap{
		"salary": job.FormatSalary,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render executes the template called name with data.
func (r *Renderer) Render(name string, data interface{}) (string, error) {
	t := r.tpl.Lookup(name + ".html")
	if t == nil {
		return "", fmt.Errorf("unknown mail template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
