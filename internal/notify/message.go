// Package notify renders and delivers notification mail.
package notify

import (
	"bytes"         // Template output buffer
	"context"       // Delivery cancellation
	"html/template" // Escaped HTML rendering
	"strings"       // Paragraph splitting
	"time"          // Footer year

	"github.com/sirupsen/logrus" // Structured logging
)

// Brand is shown in the header and footer of every mail
var Brand = "Automated AI trades"

// Message is one outgoing mail
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier accepts messages for delivery without blocking the caller
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

var layout = template.Must(template.New("mail").Parse(`<html>
  <head>
    <style>
      body { font-family: Arial, sans-serif; background: #f8fafc; color: #222; }
      .container { max-width: 600px; margin: 40px auto; background: #fff; border-radius: 8px; padding: 32px; }
      .header { background: #facc15; color: #222; padding: 16px; border-radius: 8px 8px 0 0; font-size: 24px; font-weight: bold; text-align: center; }
      .content { padding: 24px 0; font-size: 16px; }
      .footer { color: #888; font-size: 13px; text-align: center; margin-top: 32px; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">{{.Brand}}</div>
      <div class="content">
        <h2>{{.Subject}}</h2>
        {{range .Lines}}<p>{{.}}</p>
        {{end}}{{if .Link}}<p><a href="{{.Link}}">{{.LinkText}}</a></p>
        {{end}}
      </div>
      <div class="footer">&copy; {{.Year}} {{.Brand}}. All rights reserved.</div>
    </div>
  </body>
</html>
`))

type view struct {
	Brand    string
	Subject  string
	Lines    []string
	Link     string
	LinkText string
	Year     int
}

// Render builds a message from a subject, a free text body and an optional link.
// Each non-blank line of body becomes a paragraph.
func Render(to, subject, body, link, linkText string) Message {
	var lines []string
	for _, l := range strings.Split(body, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	var buf bytes.Buffer
	err := layout.Execute(&buf, view{
		Brand:    Brand,
		Subject:  subject,
		Lines:    lines,
		Link:     link,
		LinkText: linkText,
		Year:     time.Now().Year(),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to render mail template")
		return Message{To: to, Subject: subject, HTML: template.HTMLEscapeString(body)}
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}
}

// VerifyEmail asks a new investor to confirm their address
func VerifyEmail(to, name, link string) Message {
	return Render(to, "Verify your email",
		"Hi "+name+",\nThanks for registering. Please confirm your email address within 24 hours.",
		link, "Verify email")
}

// PasswordReset carries a single-use reset link
func PasswordReset(to, name, link string) Message {
	return Render(to, "Reset your password",
		"Hi "+name+",\nWe received a request to reset your password. The link below is valid for one hour.\nIf you did not ask for this you can ignore this mail.",
		link, "Reset password")
}

// DepositApproved tells the owner their deposit was credited
func DepositApproved(to, name, amount string) Message {
	return Render(to, "Deposit Approved",
		"Hi "+name+",\nYour deposit of $"+amount+" has been approved and credited to your balance.", "", "")
}

// WithdrawalApproved tells the owner their withdrawal was paid out
func WithdrawalApproved(to, name, amount string) Message {
	return Render(to, "Withdrawal Approved",
		"Hi "+name+",\nYour withdrawal of $"+amount+" has been approved.", "", "")
}

// ProfitCredited tells the owner about a new profit entry
func ProfitCredited(to, name, amount, description string) Message {
	body := "Hi " + name + ",\nA profit of $" + amount + " has been credited to your account."
	if description != "" {
		body += "\n" + description
	}
	return Render(to, "Profit Credited", body, "", "")
}

// ProfileUpdated confirms a profile change
func ProfileUpdated(to, name string) Message {
	return Render(to, "Profile Updated",
		"Hi "+name+",\nYour profile details were updated. If this was not you, reset your password.", "", "")
}

// Custom wraps an admin written message
func Custom(to, subject, message string) Message {
	return Render(to, subject, message, "", "")
}

// LogSender only logs messages. Used when no mail transport is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Mail (log transport)")
	return nil
}
