package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes the welcome message to the request logger instead of
// sending it. Used for local development.
type LogNotifier struct {
	brand Brand
}

func NewLogNotifier(brand Brand) *LogNotifier {
	return &LogNotifier{brand: brand}
}

func (n *LogNotifier) SendWelcomeEmail(ctx context.Context, to string, data Welcome) error {
	msg, err := ComposeWelcome(n.brand, to, data)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.HTML)).
		Msg("Welcome email (log provider, not sent)")
	return nil
}
