package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/GaboCancellieri/galtec-api/internal/core/port"
	"github.com/GaboCancellieri/galtec-api/internal/infra/config"
	"github.com/GaboCancellieri/galtec-api/internal/infra/logger"
)

const verificationSubject = "Verify your Sonarly account"

var verificationTemplate = template.Must(template.New("verification").Parse(`<html>
<body style="font-family: sans-serif;">
  <h2>Welcome to Sonarly, {{.Username}}!</h2>
  <p>Enter this code in the app to verify your email address:</p>
  <p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
  <p>If you did not create this account, you can ignore this message.</p>
</body>
</html>`))

// VerificationEmail renders the subject and HTML body for a verification code message.
func VerificationEmail(username, code string) (subject, htmlBody string, err error) {
	var buf bytes.Buffer
	data := struct {
		Username string
		Code     string
	}{Username: username, Code: code}

	if err := verificationTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render verification email: %w", err)
	}

	return verificationSubject, buf.String(), nil
}

// LogSender implements port.EmailSender by logging the message instead of
// delivering it. Real delivery is owned by the notification service; this
// sender keeps development environments self-contained.
type LogSender struct {
	logger *zap.Logger
	cfg    config.EmailSettings
}

// NewLogSender constructs a sender that records outbound mail in the log.
func NewLogSender(cfg config.EmailSettings, log *zap.Logger) *LogSender {
	return &LogSender{logger: log, cfg: cfg}
}

// Send logs the outbound message with the recipient masked.
func (s *LogSender) Send(_ context.Context, recipient, subject, htmlBody string) error {
	s.logger.Info("outbound email",
		zap.String("from", s.cfg.FromAddress),
		zap.String("to", logger.MaskEmail(recipient)),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return nil
}

var _ port.EmailSender = (*LogSender)(nil)
