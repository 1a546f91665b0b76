package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSendOTP(t *testing.T) {
	m := NewSMTP(SMTPConfig{Host: "mail.local", Port: 2525, From: "no-reply@foodapi.local"}, 10*time.Minute)

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, m.SendOTP(context.Background(), "asha@example.com", "482913"))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"asha@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Your OTP code is 482913. It is valid for 10 minutes.")
	assert.Nil(t, m.auth)
}

func TestSMTPSendFailure(t *testing.T) {
	m := NewSMTP(SMTPConfig{Host: "mail.local", Port: 25, Username: "u", Password: "p"}, time.Minute)
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("550 mailbox unavailable") }

	err := m.SendOTP(context.Background(), "x@example.com", "111111")
	assert.ErrorContains(t, err, "550 mailbox unavailable")
	assert.NotNil(t, m.auth)
}

func TestSMTPCancelledContext(t *testing.T) {
	m := NewSMTP(SMTPConfig{Host: "mail.local", Port: 25}, time.Minute)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.SendOTP(ctx, "x@example.com", "111111"), context.Canceled)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, m.SendOTP(context.Background(), "x@example.com", "654321"))
	assert.Contains(t, buf.String(), `"otp":"654321"`)
}
