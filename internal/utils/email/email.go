package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/billpayhq/billpay-service/internal/config"
	"github.com/billpayhq/billpay-service/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendBillReminder sends a due or overdue bill reminder email
func (s *Sender) SendBillReminder(to string, bill models.Bill, overdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if overdue {
		e.Subject = fmt.Sprintf("Overdue Bill: %s", bill.Name)
	} else {
		e.Subject = fmt.Sprintf("Upcoming Bill: %s", bill.Name)
	}

	body := "Hello,\n\n"
	if overdue {
		body += fmt.Sprintf(
			"Your bill %q of %s was due on %s and is still marked unpaid.\n"+
				"Please make the payment as soon as possible.\n",
			bill.Name, bill.Amount.StringFixed(2), bill.DueDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your bill %q of %s is due on %s.\n"+
				"Please ensure sufficient funds are available in your account.\n",
			bill.Name, bill.Amount.StringFixed(2), bill.DueDate.Format("2006-01-02"),
		)
	}
	if bill.Autopay {
		body += "Autopay is enabled for this bill; no action is needed if the payment clears.\n"
	}
	body += "\nBest regards,\nBillPay"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
