package email

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

const htmlBody = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.otp-box { background: #f4f4f4; border: 2px dashed #0073aa; padding: 20px; text-align: center; margin: 20px 0; }
.otp-code { font-size: 32px; font-weight: bold; color: #0073aa; letter-spacing: 5px; }
.footer { margin-top: 20px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div class="container">
<h2>Login Verification Code</h2>
<p>Hello {{.Name}},</p>
<p>Your One-Time Password (OTP) for logging into {{.Site}} is:</p>
<div class="otp-box"><div class="otp-code">{{.Code}}</div></div>
<p><strong>This code will expire in {{.Minutes}} minutes.</strong></p>
<p>If you did not request this code, please ignore this email.</p>
<div class="footer"><p>This is an automated email from {{.Site}}</p></div>
</div>
</body>
</html>`

const textBody = `Login Verification Code

Hello {{.Name}},

Your One-Time Password (OTP) for logging into {{.Site}} is: {{.Code}}

This code will expire in {{.Minutes}} minutes.
If you did not request this code, please ignore this email.

This is an automated email from {{.Site}}
`

type data struct {
	Name    string
	Site    string
	Code    string
	Minutes int
}

// Mail renders and sends the login code email.
type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
	site   string
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

func New(client mail.Mail, ins instrument.Instrumentation, site string) *Mail {
	return &Mail{
		client: client,
		ins:    ins,
		site:   site,
		html:   htmltemplate.Must(htmltemplate.New("otp_html").Option("missingkey=zero").Parse(htmlBody)),
		text:   texttemplate.Must(texttemplate.New("otp_text").Option("missingkey=zero").Parse(textBody)),
	}
}

func (m *Mail) SendCode(ctx context.Context, to entity.Recipient, code string) error {
	ctx, span := m.ins.Tracer("guard.outbound.email").Start(ctx, "SendCode")
	defer span.End()

	d := data{
		Name:    to.DisplayName,
		Site:    m.site,
		Code:    code,
		Minutes: int(entity.ChallengeLifetime.Minutes()),
	}

	var html, text bytes.Buffer
	if err := m.html.Execute(&html, d); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := m.text.Execute(&text, d); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	headers := map[string]string{"Auto-Submitted": "auto-generated"}
	if cid := instrument.GetCorrelationID(ctx); cid != "" {
		headers["X-Correlation-ID"] = cid
	}

	if err := m.client.Send(ctx, mail.Message{
		To:      []string{to.Email},
		Subject: "Your Login OTP - " + m.site,
		Text:    text.String(),
		HTML:    html.String(),
		Headers: headers,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
