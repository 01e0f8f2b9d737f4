package mailer

import (
	"context"
	"fmt"
	"headlines/internal/domain"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"
)

// Mailer собирает письмо из сообщения контактной формы и отправляет его получателю сайта.
// Адрес посетителя попадает только в Reply-To: From всегда принадлежит сайту.
type Mailer struct {
	sender    enmime.Sender
	siteName  string
	from      string
	recipient string
	log       *slog.Logger
	now       func() time.Time
}

// NewSMTPSender создает enmime.Sender для SMTP-сервера с PLAIN-аутентификацией,
// если задано имя пользователя.
func NewSMTPSender(addr, host, username, password string) enmime.Sender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return enmime.NewSMTP(addr, auth)
}

// New создает Mailer, который отправляет письма контактной формы на recipient
// от имени from, указывая посетителя в Reply-To.
func New(sender enmime.Sender, siteName, from, recipient string, log *slog.Logger) *Mailer {
	return &Mailer{
		sender:    sender,
		siteName:  siteName,
		from:      from,
		recipient: recipient,
		log:       log.With(slog.String("component", "mailer")),
		now:       time.Now,
	}
}

// Send реализует интерфейс usecase.Mailer.
func (m *Mailer) Send(ctx context.Context, msg domain.ContactMessage) error {
	const op = "mailer.Send"
	if err := ctx.Err(); err != nil {
		return err
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.domain())
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s\n", msg.Name, msg.Email, msg.Message)
	builder := enmime.Builder().
		From(m.siteName, m.from).
		To("", m.recipient).
		ReplyTo(msg.Name, msg.Email).
		Subject(fmt.Sprintf("%s Contact Form from %s", m.siteName, msg.Name)).
		Date(m.now()).
		Header("Message-Id", messageID).
		Text([]byte(body))
	if err := builder.Send(m.sender); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.log.Info("Contact message sent", slog.String("message_id", messageID))
	return nil
}

func (m *Mailer) domain() string {
	if at := strings.LastIndex(m.from, "@"); at >= 0 && at < len(m.from)-1 {
		return m.from[at+1:]
	}
	return "localhost"
}
