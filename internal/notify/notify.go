package notify

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// Notifier reports a job that crossed its error threshold. One
// notification is sent per run, when the threshold trips.
type Notifier interface {
	NotifyErrors(jobName string, errorCount int) error
}

// NewNotifier selects the notifier for the loaded configuration: email
// when an SMTP host is configured, otherwise log-only.
func NewNotifier(log *logger.Logger, cfg *config.Config) Notifier {
	if cfg.Notifications.SMTPHost == "" {
		return &LogNotifier{logger: log}
	}
	return NewEmailNotifier(log, cfg.Notifications)
}

// LogNotifier records the notification in the service log and nothing
// else.
type LogNotifier struct {
	logger *logger.Logger
}

func (n *LogNotifier) NotifyErrors(jobName string, errorCount int) error {
	n.logger.WithJob(jobName).Errorf("error threshold exceeded with %d errors, no SMTP host configured", errorCount)
	return nil
}

// EmailNotifier sends the threshold notification over SMTP
type EmailNotifier struct {
	logger *logger.Logger
	cfg    config.NotificationsConfig
	send   func(m *gomail.Message) error
}

// NewEmailNotifier creates an email notifier for the given SMTP settings
func NewEmailNotifier(log *logger.Logger, cfg config.NotificationsConfig) *EmailNotifier {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &EmailNotifier{
		logger: log,
		cfg:    cfg,
		send:   func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

func (n *EmailNotifier) NotifyErrors(jobName string, errorCount int) error {
	if len(n.cfg.To) == 0 {
		return fmt.Errorf("notifications have no recipients configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To...)
	m.SetHeader("Subject", fmt.Sprintf("Employee sync job [%s] stopped after too many errors", jobName))
	m.SetBody("text/plain", fmt.Sprintf(
		"The sync job [%s] was stopped at %s after %d records failed to process.\n\n"+
			"Processing will resume on the next scheduled run. Check the service log for the individual record errors.\n",
		jobName, time.Now().Format(time.RFC1123), errorCount))

	if err := n.send(m); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	n.logger.WithJob(jobName).Infof("sent error threshold notification to %d recipients", len(n.cfg.To))
	return nil
}
