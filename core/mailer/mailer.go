package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Config holds configuration for reservation notifications.
type Config struct {
	// Enabled toggles e-mail notifications. Disabled by default.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Host is the SMTP host.
	Host string `mapstructure:"host" default:"smtp.gmail.com"`
	// Port is the SMTP port.
	Port int `mapstructure:"port" default:"587"`
	// User is the SMTP account used to send.
	User string `mapstructure:"user" default:""`
	// Password is the SMTP account password.
	Password string `mapstructure:"password" default:""`
	// From is the sender address.
	From string `mapstructure:"from" default:"inventory@example.com"`
	// NotifyTo is the recipient for reservation notifications.
	NotifyTo string `mapstructure:"notify_to" default:"team@example.com"`
}

// Notifier dispatches best-effort notifications about reservation activity.
// Implementations must never be load-bearing: a failed send is logged by the
// caller and swallowed.
type Notifier interface {
	NotifyReservation(item string, qty float64, holder, endDate string) error
}

// SMTPNotifier sends reservation notifications over SMTP.
type SMTPNotifier struct {
	cfg Config
}

// NewSMTPNotifier creates a notifier from the mail configuration.
func NewSMTPNotifier(cfg Config) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// NotifyReservation sends a single plain-text notification e-mail.
func (n *SMTPNotifier) NotifyReservation(item string, qty float64, holder, endDate string) error {
	if !n.cfg.Enabled {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.NotifyTo)
	m.SetHeader("Subject", "Stock Reserved Notification")
	m.SetBody("text/plain", fmt.Sprintf("%s reserved %g units of %s until %s.", holder, qty, item, endDate))

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Password)
	return d.DialAndSend(m)
}
