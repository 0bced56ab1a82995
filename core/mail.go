package core

import (
	"bytes"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	textTemplates map[string]*texttmpl.Template
	htmlTemplates map[string]*htmltmpl.Template
	tmplInit      sync.Once
)

type (
	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render resolves the message's final text and HTML contents.
func (m *EmailMessage) Render() error {
	tmplInit.Do(loadTemplates)

	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	data := m.getContextData()
	if tmpl, ok := textTemplates[m.TemplateName]; ok {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return errors.Wrap(err, "executing text template "+m.TemplateName)
		}
		m.TextContent = buf.String()
	}
	if tmpl, ok := htmlTemplates[m.TemplateName]; ok {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return errors.Wrap(err, "executing html template "+m.TemplateName)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool {
	return m.BodyStr != "" || m.TextContent != "" || m.HTMLContent != ""
}

// loadTemplates registers the transactional mail templates. They are compiled
// in rather than read from disk: the platform only sends two of them.
func loadTemplates() {
	textTemplates = map[string]*texttmpl.Template{
		"welcome": texttmpl.Must(texttmpl.New("welcome").Parse(
			"Welcome to Sekolahku!\n\n" +
				"Your account has been created. Sign in at {{.FrontendBaseURL}}/auth/sign-in to start reviewing schools.\n",
		)),
		"password-reset": texttmpl.Must(texttmpl.New("password-reset").Parse(
			"You requested a password reset.\n\n" +
				"Open {{.FrontendBaseURL}}/auth/reset-password/{{.Data.UID}}/{{.Data.Token}} to choose a new password.\n" +
				"If you did not request this, you can safely ignore this email.\n",
		)),
	}
	htmlTemplates = map[string]*htmltmpl.Template{
		"welcome": htmltmpl.Must(htmltmpl.New("welcome").Parse(
			"<p>Welcome to <b>Sekolahku</b>!</p>" +
				"<p>Your account has been created. <a href=\"{{.FrontendBaseURL}}/auth/sign-in\">Sign in</a> to start reviewing schools.</p>",
		)),
		"password-reset": htmltmpl.Must(htmltmpl.New("password-reset").Parse(
			"<p>You requested a password reset.</p>" +
				"<p><a href=\"{{.FrontendBaseURL}}/auth/reset-password/{{.Data.UID}}/{{.Data.Token}}\">Choose a new password</a></p>" +
				"<p>If you did not request this, you can safely ignore this email.</p>",
		)),
	}
}
