package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/artspot/gallery-api/internal/config"
)

// StartNotificationConsumer connects to RabbitMQ and consumes inquiry
// notification events. Each event becomes an email: delivered over SMTP when
// a host is configured, otherwise appended to logs/notifications.log so
// development runs stay mail-free. The function runs a reconnect loop with
// exponential backoff and does not return under normal operation; processing
// errors reject the offending message without requeueing so a poison message
// cannot loop.
func StartNotificationConsumer(smtpCfg config.SMTPConfig, baseURL string) error {
	m := mailer{cfg: smtpCfg, baseURL: baseURL}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeQueue(conn, InquiryQueueName, m.handle); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

// consumeQueue opens a channel, declares the durable queue and feeds each
// delivery to handle, acking on success and rejecting without requeue on
// failure. It returns when the delivery channel closes.
func consumeQueue(conn *amqp.Connection, name string, handle func([]byte) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("consumer(%s): set QoS failed: %v", name, err)
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handle(d.Body); err != nil {
			log.Printf("consumer(%s): handle message failed: %v", name, err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

type mailer struct {
	cfg     config.SMTPConfig
	baseURL string
}

func (m mailer) handle(body []byte) error {
	var ev InquiryNotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	var to, subject, text string
	switch ev.Kind {
	case KindInquiryReceived:
		if m.cfg.StaffEmail == "" {
			// Nothing to notify; treat as handled.
			return m.appendLog(ev, "staff email not configured")
		}
		to = m.cfg.StaffEmail
		subject = fmt.Sprintf("New Inquiry: %s", ev.ArtworkTitle)
		lines := []string{
			fmt.Sprintf("New inquiry received for %q.", ev.ArtworkTitle),
			"",
			fmt.Sprintf("From: %s (%s)", ev.CustomerName, ev.CustomerEmail),
		}
		if ev.CustomerPhone != nil && *ev.CustomerPhone != "" {
			lines = append(lines, fmt.Sprintf("Phone: %s", *ev.CustomerPhone))
		}
		lines = append(lines, "", "Message:", ev.Message, "",
			fmt.Sprintf("Manage: %s/admin/inquiries", m.baseURL))
		text = strings.Join(lines, "\r\n")
	case KindInquiryResponded:
		to = ev.CustomerEmail
		subject = fmt.Sprintf("Re: Your Inquiry About %q", ev.ArtworkTitle)
		text = strings.Join([]string{
			fmt.Sprintf("Dear %s,", ev.CustomerName),
			"",
			fmt.Sprintf("Thank you for your interest in %q. Our team has responded to your inquiry:", ev.ArtworkTitle),
			"",
			ev.Response,
			"",
			"Best regards,",
			"The ArtSpot Team",
		}, "\r\n")
	default:
		return fmt.Errorf("unknown notification kind %q", ev.Kind)
	}

	if m.cfg.Host == "" {
		return m.appendLog(ev, "smtp not configured")
	}
	return m.send(to, subject, text)
}

func (m mailer) send(to, subject, text string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, text)
	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// appendLog records the notification to logs/notifications.log in a
// single-line, human-friendly format.
func (m mailer) appendLog(ev InquiryNotificationEvent, reason string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "notifications.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s | inquiry_id=%d | customer=%q <%s> | artwork=%q | delivery=skipped (%s)\n",
		ev.OccurredAt, ev.Kind, ev.InquiryID, ev.CustomerName, ev.CustomerEmail, ev.ArtworkTitle, reason)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
