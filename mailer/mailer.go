// Package mailer delivers OTP emails.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends mail through a single relay with PLAIN auth when credentials are set.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
	ttl  time.Duration
	send sendFunc
}

func NewSMTP(cfg SMTPConfig, ttl time.Duration) *SMTP {
	m := &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		ttl:  ttl,
		send: smtp.SendMail,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m
}

func (m *SMTP) SendOTP(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := otpMessage(m.from, to, code, m.ttl)
	if err := m.send(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("mailer: send otp to %s: %w", to, err)
	}
	return nil
}

func otpMessage(from, to, code string, ttl time.Duration) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your verification code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "Your OTP code is %s. It is valid for %d minutes.\r\n", code, int(ttl.Minutes()))
	return []byte(b.String())
}

// Log writes the code to the logger instead of sending it. Development only.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (m *Log) SendOTP(ctx context.Context, to, code string) error {
	m.logger.InfoContext(ctx, "otp email not sent, smtp disabled", "to", to, "otp", code)
	return nil
}
