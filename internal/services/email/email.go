// Package email sends request-lifecycle mail (approved, rejected,
// available) over the operator-configured SMTP connection. Delivery is
// best effort: the in-app notification is the primary channel and mail
// failures never block a request transition.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"

	"github.com/veyronhq/reqforge/pkg/structures"
)

type Service struct {
	settings *structures.EmailSettings
	auth     smtp.Auth
}

func NewService(settings *structures.EmailSettings) *Service {
	if !settings.Enabled {
		return &Service{settings: settings}
	}

	var auth smtp.Auth
	if settings.SMTPUsername != "" && settings.SMTPPassword != "" {
		auth = smtp.PlainAuth("", settings.SMTPUsername, settings.SMTPPassword, settings.SMTPHost)
	}

	return &Service{
		settings: settings,
		auth:     auth,
	}
}

func (s *Service) IsEnabled() bool {
	return s.settings != nil && s.settings.Enabled
}

// SendRequestApproved mails the requester that their request was approved.
func (s *Service) SendRequestApproved(data structures.RequestEmailData) error {
	if !s.IsEnabled() {
		return fmt.Errorf("email service is not enabled")
	}

	subject := fmt.Sprintf("Your request for %s was approved", data.MediaTitle)
	detail := "has been approved and is on its way to the library."
	textBody := fmt.Sprintf("Hi %s,\n\nYour %s request for %q %s\n",
		data.Username, data.MediaType, data.MediaTitle, detail)
	htmlBody, err := s.renderRequestHTML("Request approved", data, detail)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(data.Recipient, subject, htmlBody, textBody)
}

// SendRequestRejected mails the requester that their request was declined.
func (s *Service) SendRequestRejected(data structures.RequestEmailData) error {
	if !s.IsEnabled() {
		return fmt.Errorf("email service is not enabled")
	}

	subject := fmt.Sprintf("Your request for %s was declined", data.MediaTitle)
	detail := "was declined."
	if data.Reason != "" {
		detail = fmt.Sprintf("was declined: %s", data.Reason)
	}
	textBody := fmt.Sprintf("Hi %s,\n\nYour %s request for %q %s\n",
		data.Username, data.MediaType, data.MediaTitle, detail)
	htmlBody, err := s.renderRequestHTML("Request declined", data, detail)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(data.Recipient, subject, htmlBody, textBody)
}

// SendMediaAvailable mails the requester that their media can be watched.
func (s *Service) SendMediaAvailable(data structures.RequestEmailData) error {
	if !s.IsEnabled() {
		return fmt.Errorf("email service is not enabled")
	}

	subject := fmt.Sprintf("%s is now available", data.MediaTitle)
	detail := "is now available in the library. Enjoy!"
	textBody := fmt.Sprintf("Hi %s,\n\n%q %s\n", data.Username, data.MediaTitle, detail)
	htmlBody, err := s.renderRequestHTML("Now available", data, detail)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(data.Recipient, subject, htmlBody, textBody)
}

var requestEmailTemplate = template.Must(template.New("request").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Heading}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 8px; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 8px; margin: 20px 0; }
        .button { display: inline-block; background: #667eea; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; margin: 20px 0; }
        .title { font-weight: bold; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Heading}}</h1>
    </div>

    <div class="content">
        <h2>Hi {{.Data.Username}}!</h2>

        <p>Your {{.Data.MediaType}} request for <span class="title">{{.Data.MediaTitle}}</span> {{.Detail}}</p>

        {{if .Data.BaseURL}}
        <div style="text-align: center;">
            <a href="{{.Data.BaseURL}}/requests" class="button">View your requests</a>
        </div>
        {{end}}
    </div>

    <div class="footer">
        <p>This message was sent by {{.Data.AppName}}</p>
    </div>
</body>
</html>`))

func (s *Service) renderRequestHTML(heading string, data structures.RequestEmailData, detail string) (string, error) {
	if data.AppName == "" {
		data.AppName = "Reqforge"
	}

	var buf bytes.Buffer
	err := requestEmailTemplate.Execute(&buf, struct {
		Heading string
		Detail  string
		Data    structures.RequestEmailData
	}{Heading: heading, Detail: detail, Data: data})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) sendEmail(to, subject, htmlBody, textBody string) error {
	from := s.settings.SenderAddress
	fromName := s.settings.SenderName
	if fromName == "" {
		fromName = "Reqforge"
	}

	// Construct message
	msg := bytes.Buffer{}
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: multipart/alternative; boundary=\"boundary123\"\r\n")
	msg.WriteString("\r\n")

	// Text part
	msg.WriteString("--boundary123\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	// HTML part
	msg.WriteString("--boundary123\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")
	msg.WriteString("--boundary123--\r\n")

	addr := fmt.Sprintf("%s:%d", s.settings.SMTPHost, s.settings.SMTPPort)

	// Handle different encryption methods
	if s.settings.EncryptionMethod == "starttls" || s.settings.UseSTARTTLS {
		return s.sendMailWithSTARTTLS(addr, s.auth, from, []string{to}, msg.Bytes())
	}

	return smtp.SendMail(addr, s.auth, from, []string{to}, msg.Bytes())
}

func (s *Service) sendMailWithSTARTTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	// Connect to the SMTP server
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	// Create SMTP client
	client, err := smtp.NewClient(conn, s.settings.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	// Start TLS if supported
	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName:         s.settings.SMTPHost,
			InsecureSkipVerify: s.settings.AllowSelfSigned,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	// Authenticate if credentials are provided
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	// Set sender
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	// Set recipients
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	// Send message
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	defer writer.Close()

	if _, err = writer.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
