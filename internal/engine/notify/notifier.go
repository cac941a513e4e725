package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"synapselab/internal/platform/config"
)

// Welcome carries what the welcome email shows to a new admin.
type Welcome struct {
	UserName         string
	OrganizationName string
	LoginEmail       string
	Plan             string
}

// Notifier delivers the welcome email. Implementations must honour ctx.
type Notifier interface {
	SendWelcomeEmail(ctx context.Context, to string, data Welcome) error
}

type Brand struct {
	ProductName    string
	LoginURL       string
	SupportContact string
}

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html>
  <body style="font-family: sans-serif; color: #333;">
    <div style="max-width: 600px; margin: auto; border: 1px solid #eee; padding: 20px;">
      <h1 style="color: #0d9488;">{{.Brand.ProductName}}</h1>
      <h2>Sua licença foi ativada, {{.Welcome.UserName}}!</h2>
      <p>A <strong>{{.Welcome.OrganizationName}}</strong> agora faz parte do {{.Brand.ProductName}}.</p>
      <div style="background: #f0fdfa; padding: 15px; border-radius: 10px;">
        <p><strong>Plano:</strong> {{.Welcome.Plan}}</p>
        <p><strong>Login:</strong> {{.Welcome.LoginEmail}}</p>
        {{- if .Brand.LoginURL}}
        <p><strong>Acesse aqui:</strong> <a href="{{.Brand.LoginURL}}">{{.Brand.LoginURL}}</a></p>
        {{- end}}
      </div>
      {{- if .Brand.SupportContact}}
      <p>Suporte: {{.Brand.SupportContact}}</p>
      {{- end}}
    </div>
  </body>
</html>
`))

// ComposeWelcome renders the welcome message for to. Every value is HTML
// escaped.
func ComposeWelcome(brand Brand, to string, w Welcome) (Message, error) {
	var body bytes.Buffer
	err := welcomeTemplate.Execute(&body, struct {
		Brand   Brand
		Welcome Welcome
	}{brand, w})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render welcome email: %w", err)
	}

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Bem-vindo ao %s - Acesso Liberado: %s", brand.ProductName, w.OrganizationName),
		HTML:    body.String(),
	}, nil
}

// New builds the Notifier selected by cfg.Provider.
func New(cfg config.EmailConfig) (Notifier, error) {
	brand := Brand{
		ProductName:    cfg.ProductName,
		LoginURL:       cfg.LoginURL,
		SupportContact: cfg.SupportContact,
	}

	switch cfg.Provider {
	case "smtp":
		n := NewSMTPNotifier(cfg.SMTP, brand)
		if err := n.Validate(); err != nil {
			return nil, err
		}
		return n, nil
	case "http":
		n := NewHTTPNotifier(cfg.HTTP, brand, cfg.Timeout)
		if err := n.Validate(); err != nil {
			return nil, err
		}
		return n, nil
	case "log", "":
		return NewLogNotifier(brand), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
