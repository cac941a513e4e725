package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"synapselab/internal/platform/config"
)

type SMTPNotifier struct {
	cfg   config.SMTPConfig
	brand Brand
}

func NewSMTPNotifier(cfg config.SMTPConfig, brand Brand) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, brand: brand}
}

func (n *SMTPNotifier) Validate() error {
	errs := []error{}
	if n.cfg.Host == "" {
		errs = append(errs, fmt.Errorf("missing smtp host"))
	}
	if n.cfg.Port == 0 {
		errs = append(errs, fmt.Errorf("missing smtp port"))
	}
	if n.cfg.FromAddress == "" {
		errs = append(errs, fmt.Errorf("missing sender address"))
	}
	if n.cfg.Username != "" && n.cfg.Password == "" {
		errs = append(errs, fmt.Errorf("missing smtp password"))
	}

	if len(errs) > 0 {
		errs = append([]error{fmt.Errorf("smtp notifier validation failed")}, errs...)
		return errors.Join(errs...)
	}
	return nil
}

func (n *SMTPNotifier) SendWelcomeEmail(ctx context.Context, to string, data Welcome) error {
	msg, err := ComposeWelcome(n.brand, to, data)
	if err != nil {
		return err
	}

	raw, err := n.buildMessage(msg)
	if err != nil {
		return err
	}

	if err := n.send(ctx, to, raw); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(msg Message) ([]byte, error) {
	from := n.cfg.FromAddress
	if n.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", n.cfg.FromName), from)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprint(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprint(&buf, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprint(&buf, "Content-Transfer-Encoding: quoted-printable\r\n")
	fmt.Fprint(&buf, "\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.HTML)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// send runs one SMTP session. STARTTLS is used when the server offers it and
// PLAIN auth when credentials are configured. ctx bounds the whole session.
func (n *SMTPNotifier) send(ctx context.Context, to string, raw []byte) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return err
		}
	}

	if n.cfg.Username != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(n.cfg.FromAddress); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
