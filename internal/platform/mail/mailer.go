package mail

import (
	"context"

	"github.com/R3E-Network/jobhunter/internal/app/metrics"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

const (
	subjectDigest     = "Hot job openings are waiting for you"
	subjectInvitation = "Interview invitation"
	subjectResult     = "Interview result"
	subjectRejected   = "Application result"
	subjectHired      = "Congratulations, you have been hired"
)

// DigestJob is one line of the subscriber digest.
type DigestJob struct {
	Name        string
	CompanyName string
	Salary      float64
	Skills      []string
}

// Candidate identifies the recipient of a pipeline mail and the position.
type Candidate struct {
	Email       string
	Name        string
	JobTitle    string
	CompanyName string
	// ConfirmationURL is where the candidate answers an invitation.
	ConfirmationURL string
}

// Mailer composes templated business mails.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	log      *logger.Logger
}

func NewMailer(sender Sender, renderer *Renderer, log *logger.Logger) *Mailer {
	if log == nil {
		log = logger.NewDefault("mail")
	}
	return &Mailer{sender: sender, renderer: renderer, log: log}
}

// SendDigest mails the job digest to one subscriber.
func (m *Mailer) SendDigest(ctx context.Context, to, name string, jobs []DigestJob) error {
	return m.send(ctx, to, subjectDigest, TemplateJobDigest, map[string]interface{}{
		"Name": name,
		"Jobs": jobs,
	})
}

func (m *Mailer) SendInterviewInvitation(ctx context.Context, c Candidate) error {
	return m.send(ctx, c.Email, subjectInvitation, TemplateInterviewInvitation, c)
}

func (m *Mailer) SendInterviewPassed(ctx context.Context, c Candidate) error {
	return m.send(ctx, c.Email, subjectResult, TemplateInterviewPassed, c)
}

func (m *Mailer) SendInterviewFailed(ctx context.Context, c Candidate) error {
	return m.send(ctx, c.Email, subjectResult, TemplateInterviewFailed, c)
}

func (m *Mailer) SendRejection(ctx context.Context, c Candidate) error {
	return m.send(ctx, c.Email, subjectRejected, TemplateRejected, c)
}

func (m *Mailer) SendHired(ctx context.Context, c Candidate) error {
	return m.send(ctx, c.Email, subjectHired, TemplateHired, c)
}

func (m *Mailer) send(ctx context.Context, to, subject, template string, data interface{}) error {
	html, err := m.renderer.Render(template, data)
	if err == nil {
		err = m.sender.Send(ctx, Message{To: to, Subject: subject, HTML: html})
	}
	metrics.RecordMail(template, err == nil)
	if err != nil {
		m.log.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"to":       to,
			"template": template,
		}).Warn("mail not sent")
		return err
	}
	m.log.WithContext(ctx).WithFields(map[string]interface{}{
		"to":       to,
		"template": template,
	}).Debug("mail sent")
	return nil
}
