package email

import (
	"bytes"
	"errors"
	"fmt"
	htemplate "html/template"

	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
)

var (
	ErrSendFailed     = errors.New("email: send failed")
	ErrTemplateRender = errors.New("email: template render failed")
)

// tempPasswordVars son las variables del template de password temporal.
type tempPasswordVars struct {
	Name         string
	Email        string
	TempPassword string
	Issuer       string
}

var tempPasswordHTML = htemplate.Must(htemplate.New("temp_password").Parse(`
<p>Hola {{.Name}},</p>
<p>Se creó una cuenta de {{.Issuer}} para <b>{{.Email}}</b>.</p>
<p>Tu password temporal es: <code>{{.TempPassword}}</code></p>
<p>Vas a tener que cambiarla en el primer login.</p>
`))

// Service arma y envía los correos de la clínica sobre un Sender.
type Service struct {
	sender Sender
	issuer string
}

// NewService crea el servicio. issuer aparece en los correos como nombre
// del sistema (el mismo que el issuer TOTP).
func NewService(sender Sender, issuer string) *Service {
	if issuer == "" {
		issuer = "VetClinic"
	}
	return &Service{sender: sender, issuer: issuer}
}

// SendTempPassword envía el password temporal de una cuenta creada por
// administración. El caller ya persistió la cuenta con MustChangePassword.
func (s *Service) SendTempPassword(to, name, tempPassword string) error {
	if s.sender == nil {
		// Sin SMTP configurado (dev): se loguea y listo.
		logger.Named("email").Warn("no SMTP sender configured, temp password not emailed",
			logger.Email(to))
		return nil
	}

	var html bytes.Buffer
	err := tempPasswordHTML.Execute(&html, tempPasswordVars{
		Name:         name,
		Email:        to,
		TempPassword: tempPassword,
		Issuer:       s.issuer,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	text := fmt.Sprintf(
		"Hola %s,\n\nSe creó una cuenta de %s para %s.\nTu password temporal es: %s\n\nVas a tener que cambiarla en el primer login.\n",
		name, s.issuer, to, tempPassword)

	subject := fmt.Sprintf("%s: tu cuenta nueva", s.issuer)
	if err := s.sender.Send(to, subject, html.String(), text); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}
