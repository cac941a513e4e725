package notify

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"synapselab/internal/platform/config"
)

// fakeSMTPServer accepts one session without STARTTLS or AUTH and records
// the envelope and data.
type fakeSMTPServer struct {
	listener net.Listener
	mu       sync.Mutex
	from     string
	rcpt     []string
	data     string
	done     chan struct{}
}

func startFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSMTPServer{listener: l, done: make(chan struct{})}
	go s.serve()
	t.Cleanup(func() { l.Close() })
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	defer close(s.done)

	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 localhost ESMTP test")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		switch verb {
		case "EHLO":
			tp.PrintfLine("250-localhost")
			tp.PrintfLine("250 8BITMIME")
		case "HELO", "NOOP", "RSET":
			tp.PrintfLine("250 OK")
		case "MAIL":
			s.mu.Lock()
			s.from = line
			s.mu.Unlock()
			tp.PrintfLine("250 OK")
		case "RCPT":
			s.mu.Lock()
			s.rcpt = append(s.rcpt, line)
			s.mu.Unlock()
			tp.PrintfLine("250 OK")
		case "DATA":
			tp.PrintfLine("354 Go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = string(data)
			s.mu.Unlock()
			tp.PrintfLine("250 Queued")
		case "QUIT":
			tp.PrintfLine("221 Bye")
			return
		default:
			tp.PrintfLine("502 Not implemented")
		}
	}
}

func TestSMTPNotifier_SendsWelcome(t *testing.T) {
	server := startFakeSMTPServer(t)

	n := NewSMTPNotifier(config.SMTPConfig{
		Host:        "127.0.0.1",
		Port:        server.port(),
		FromAddress: "noreply@synapselab.io",
		FromName:    "SynapseLab",
	}, testBrand)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := n.SendWelcomeEmail(ctx, "ana@acme.io", Welcome{
		UserName:         "Ana",
		OrganizationName: "Acme Labs",
		LoginEmail:       "ana@acme.io",
		Plan:             "pro",
	})
	require.NoError(t, err)
	<-server.done

	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Contains(t, server.from, "<noreply@synapselab.io>")
	require.Len(t, server.rcpt, 1)
	assert.Contains(t, server.rcpt[0], "<ana@acme.io>")

	msg, err := textproto.NewReader(bufio.NewReader(strings.NewReader(server.data))).ReadMIMEHeader()
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.io", msg.Get("To"))
	assert.Equal(t, "text/html; charset=UTF-8", msg.Get("Content-Type"))
	assert.Equal(t, "quoted-printable", msg.Get("Content-Transfer-Encoding"))
	assert.Contains(t, server.data, "Acme Labs")
}

func TestSMTPNotifier_DialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	n := NewSMTPNotifier(config.SMTPConfig{Host: "127.0.0.1", Port: port, FromAddress: "a@b.io"}, testBrand)
	err = n.SendWelcomeEmail(context.Background(), "ana@acme.io", Welcome{})
	assert.Error(t, err)
}

func TestSMTPNotifier_Validate(t *testing.T) {
	err := NewSMTPNotifier(config.SMTPConfig{Username: "user"}, testBrand).Validate()
	require.Error(t, err)
	for _, want := range []string{"smtp host", "smtp port", "sender address", "smtp password"} {
		assert.Contains(t, err.Error(), want)
	}

	ok := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.gmail.com", Port: 587, FromAddress: "a@b.io"}, testBrand)
	assert.NoError(t, ok.Validate())
}

func TestSMTPNotifier_BuildMessageEncodesSubject(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{FromAddress: "a@b.io", FromName: "Synapse Lab"}, testBrand)

	raw, err := n.buildMessage(Message{To: "ana@acme.io", Subject: "Acesso Liberado: Ação", HTML: "<p>olá</p>"})
	require.NoError(t, err)

	header, err := textproto.NewReader(bufio.NewReader(strings.NewReader(string(raw)))).ReadMIMEHeader()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header.Get("Subject"), "=?utf-8?q?"), header.Get("Subject"))
	assert.Equal(t, "1.0", header.Get("MIME-Version"))
}
