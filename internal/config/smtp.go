package config

import "os"

// SMTPConfig carries delivery settings for the notification consumer. When
// Host is empty no real delivery happens and notifications are appended to a
// local log file instead, which keeps development environments mail-free.
type SMTPConfig struct {
	Host       string // SMTP server host; empty disables delivery
	Port       string // SMTP server port
	Username   string // auth username (optional)
	Password   string // auth password (optional)
	From       string // From address on outgoing mail
	StaffEmail string // address receiving new-inquiry notifications
}

// LoadSMTPConfig reads SMTP settings from the environment.
func LoadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       envStr("SMTP_PORT", "587"),
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       envStr("SMTP_FROM", "noreply@artspot.example"),
		StaffEmail: os.Getenv("STAFF_EMAIL"),
	}
}
