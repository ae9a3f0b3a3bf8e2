// Package mail sends the finished summary to the meeting owner. Delivery is
// best effort and never affects job outcome.
package mail

import (
	"fmt"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"
)

type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers summary notifications over SMTP.
type Sender struct {
	cfg Config
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// SendSummary emails the summary to the recipient. Disabled mailers and
// blank recipients are quiet no-ops; delivery errors are logged and
// swallowed.
func (s *Sender) SendSummary(recipient, meetingTitle, summary string) {
	if !s.cfg.Enabled || recipient == "" {
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", fmt.Sprintf("Summary ready: %s", meetingTitle))
	m.SetBody("text/plain", summary)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		log.Warn().Err(err).Str("recipient", recipient).Msg("summary email not delivered")
	}
}
