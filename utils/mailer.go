package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cppla/waldo/config"
	"github.com/cppla/waldo/models"
)

// MailConfigured reports whether SMTP settings are present.
func MailConfigured() bool {
	cfg := config.Get()
	return cfg.SMTPHost != "" && cfg.SMTPFrom != ""
}

// NotifyWaldoByMail emails the chosen user their secret code for day.
// Its signature matches services.NotifierFunc.
func NotifyWaldoByMail(ctx context.Context, user models.User, code string, day time.Time) error {
	if user.Email == "" {
		return fmt.Errorf("user %d has no email", user.ID)
	}
	subject := "You are today's Waldo (" + day.UTC().Format(time.DateOnly) + ")"
	body := fmt.Sprintf("Hi %s,\r\n\r\nYou were picked as the Waldo for %s.\r\n"+
		"Players who find you need this code to claim their points:\r\n\r\n    %s\r\n\r\n"+
		"Share it only with people who actually spot you.\r\n",
		user.Username, day.UTC().Format(time.DateOnly), code)

	return SendMail(ctx, user.Email, subject, body)
}

const smtpSessionTimeout = 15 * time.Second

// SendMail sends a plain text email using SMTP settings from config. The whole session,
// dial included, is bounded by ctx and by smtpSessionTimeout; the connection is closed
// as soon as ctx is done.
func SendMail(ctx context.Context, to, subject, body string) error {
	cfg := config.Get()
	if !MailConfigured() {
		return fmt.Errorf("smtp not configured")
	}
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))
	msg := buildMessage(cfg.SMTPFromName, cfg.SMTPFrom, to, subject, body)

	ctx, cancel := context.WithTimeout(ctx, smtpSessionTimeout)
	defer cancel()

	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := deliver(conn, cfg.SMTPHost, cfg.SMTPTLS, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, to, msg); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("smtp %s: %w", addr, ctx.Err())
		}
		return err
	}
	return nil
}

func deliver(conn net.Conn, host string, requireTLS bool, username, password, from, to string, msg []byte) error {
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	} else if requireTLS {
		return fmt.Errorf("smtp server %s does not offer STARTTLS", host)
	}
	if username != "" {
		if err := c.Auth(smtp.PlainAuth("", username, password, host)); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(fromName, from, to, subject, body string) []byte {
	if fromName == "" {
		fromName = "Daily Waldo"
	}
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", mime.BEncoding.Encode("UTF-8", fromName), from)},
		{"To", to},
		{"Subject", mime.BEncoding.Encode("UTF-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}
	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}
