package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"synapselab/internal/platform/config"
)

// HTTPNotifier hands the composed message to a transactional mail API.
type HTTPNotifier struct {
	cfg    config.HTTPMailConfig
	brand  Brand
	client *http.Client
}

type relayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func NewHTTPNotifier(cfg config.HTTPMailConfig, brand Brand, timeout time.Duration) *HTTPNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNotifier{
		cfg:    cfg,
		brand:  brand,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *HTTPNotifier) Validate() error {
	var errs []error
	if n.cfg.Endpoint == "" {
		errs = append(errs, errors.New("missing mail relay endpoint"))
	}
	if n.cfg.FromAddress == "" {
		errs = append(errs, errors.New("missing sender address"))
	}
	return errors.Join(errs...)
}

func (n *HTTPNotifier) SendWelcomeEmail(ctx context.Context, to string, data Welcome) error {
	msg, err := ComposeWelcome(n.brand, to, data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(relayRequest{
		From:    n.cfg.FromAddress,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Synapse-Delivery", "dlv_"+uuid.NewString())
	if n.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	}
	if n.cfg.SigningSecret != "" {
		req.Header.Set("X-Synapse-Signature", Sign(n.cfg.SigningSecret, payload))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail relay request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail relay returned HTTP %d", resp.StatusCode)
	}
	return nil
}
