package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"synapselab/internal/platform/config"
)

var testBrand = Brand{
	ProductName:    "SynapseLab",
	LoginURL:       "https://app.synapselab.io/login",
	SupportContact: "WhatsApp (61) 9331-4870",
}

func TestComposeWelcome(t *testing.T) {
	msg, err := ComposeWelcome(testBrand, "ana@acme.io", Welcome{
		UserName:         "Ana",
		OrganizationName: "Acme Labs",
		LoginEmail:       "ana@acme.io",
		Plan:             "pro",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@acme.io", msg.To)
	assert.Equal(t, "Bem-vindo ao SynapseLab - Acesso Liberado: Acme Labs", msg.Subject)
	assert.Contains(t, msg.HTML, "Ana")
	assert.Contains(t, msg.HTML, "Acme Labs")
	assert.Contains(t, msg.HTML, "ana@acme.io")
	assert.Contains(t, msg.HTML, "pro")
	assert.Contains(t, msg.HTML, `href="https://app.synapselab.io/login"`)
	assert.Contains(t, msg.HTML, "(61) 9331-4870")
}

func TestComposeWelcome_EscapesValues(t *testing.T) {
	msg, err := ComposeWelcome(Brand{ProductName: "SynapseLab"}, "x@y.io", Welcome{
		UserName:         `<script>alert(1)</script>`,
		OrganizationName: "Tom & Jerry",
	})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.Contains(t, msg.HTML, "Tom &amp; Jerry")
	assert.NotContains(t, msg.HTML, "Acesse aqui")
	assert.NotContains(t, msg.HTML, "Suporte")
}

func TestNew_SelectsProvider(t *testing.T) {
	n, err := New(config.EmailConfig{Provider: "log", ProductName: "SynapseLab"})
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	n, err = New(config.EmailConfig{
		Provider: "smtp",
		SMTP:     config.SMTPConfig{Host: "smtp.gmail.com", Port: 587, Username: "u", Password: "p", FromAddress: "u@x.io"},
	})
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, n)

	n, err = New(config.EmailConfig{
		Provider: "http",
		HTTP:     config.HTTPMailConfig{Endpoint: "https://relay.example.com/send", FromAddress: "u@x.io"},
	})
	require.NoError(t, err)
	assert.IsType(t, &HTTPNotifier{}, n)

	_, err = New(config.EmailConfig{Provider: "smtp"})
	assert.Error(t, err)

	_, err = New(config.EmailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(testBrand)
	assert.NoError(t, n.SendWelcomeEmail(context.Background(), "ana@acme.io", Welcome{UserName: "Ana"}))
}

func TestSign(t *testing.T) {
	// echo -n "payload" | openssl dgst -sha256 -hmac "secret"
	expected := "b82fcb791acec57859b989b430a826488ce2e479fdf92326bd0a2e8375a42ba4"
	assert.Equal(t, expected, Sign("secret", []byte("payload")))
}
