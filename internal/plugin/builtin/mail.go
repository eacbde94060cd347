package builtin

import (
	"context"
	"net/smtp"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/plugin"
	"github.com/Dev-ALPM/imixs-workflow/internal/resilience"
)

// Mailer abstracts the mail transport so tests never open a real SMTP
// connection; SMTPMailer is the production implementation.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SMTPMailer sends via net/smtp.SendMail; no example repo in this corpus
// handles outbound email, so this one component falls back to the standard
// library rather than inventing a third-party dependency to exercise.
type SMTPMailer struct {
	Addr string
	Auth smtp.Auth
	From string
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, body string) error {
	msg := []byte("Subject: " + subject + "\r\n\r\n" + body)
	return smtp.SendMail(m.Addr, m.Auth, m.From, to, msg)
}

// MailPlugin stages a notification mail on Run and actually sends it on
// Close(rollback=false), the canonical deferred side effect of a process
// step. Recipients are the workitem's $readAccess as it stands when Run is
// called, which is before the kernel recomputes ACLs for the step; readers
// granted by this step's transition are not included.
type MailPlugin struct {
	mailer Mailer
	guard  *resilience.Guard[struct{}]

	pending bool
	to      []string
	subject string
	body    string
}

// NewMailPlugin wires a concrete Mailer (nil disables sending, useful in
// tests that only assert the chain's control flow).
func NewMailPlugin(m Mailer) *MailPlugin {
	return &MailPlugin{mailer: m}
}

// WithGuard routes the deferred SMTP send through a resilience.Guard,
// giving mail delivery the same circuit breaker + backoff as other
// plugin I/O.
func (p *MailPlugin) WithGuard(guard *resilience.Guard[struct{}]) *MailPlugin {
	p.guard = guard
	return p
}

func (p *MailPlugin) Name() string { return "mail" }

func (p *MailPlugin) Init(ctx context.Context, wctx plugin.WorkflowContext) error { return nil }

func (p *MailPlugin) Run(ctx context.Context, w *itemcollection.ItemCollection, ev plugin.EventView) (*itemcollection.ItemCollection, error) {
	if ev.MailInactive || ev.MailSubject == "" || p.mailer == nil {
		return w, nil
	}
	recipients := w.GetItemValueStringList(itemcollection.ItemReadAccess)
	if len(recipients) == 0 {
		return w, nil
	}
	p.pending = true
	p.to = recipients
	p.subject = ev.MailSubject
	p.body = ev.MailBody
	return w, nil
}

func (p *MailPlugin) Close(ctx context.Context, rollback bool) error {
	if rollback || !p.pending {
		return nil
	}
	send := func(ctx context.Context) error { return p.mailer.Send(ctx, p.to, p.subject, p.body) }
	if p.guard != nil {
		return p.guard.RunErr(ctx, send)
	}
	return send(ctx)
}

var _ plugin.Plugin = (*MailPlugin)(nil)
