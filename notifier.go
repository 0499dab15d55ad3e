package goIdentity

import (
	"context"

	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/rs/zerolog"
)

// Notifier delivers codes to account owners. Implementations must be safe
// for concurrent use.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendMultifactorCode(ctx context.Context, kind mfa.Kind, contact, code string) error
}

// LogNotifier writes codes to a logger instead of delivering them. It is
// the default Notifier and is meant for development only.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a notifier writing to logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerificationCode(_ context.Context, email, code string) error {
	n.logger.Info().
		Str("channel", "email").
		Str("contact", email).
		Str("code", code).
		Msg("verification code")
	return nil
}

func (n *LogNotifier) SendMultifactorCode(_ context.Context, kind mfa.Kind, contact, code string) error {
	n.logger.Info().
		Str("channel", string(kind)).
		Str("contact", contact).
		Str("code", code).
		Msg("multifactor code")
	return nil
}
