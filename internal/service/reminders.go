package service

import (
	"context"
	"time"
)

// Reminders go out for unpaid bills due within this many days, plus bills
// already overdue by up to the same span.
const reminderWindowDays = 3

// SendBillReminders emails users about unpaid bills that are due soon or
// recently went overdue. Failures are logged per bill so one bad address
// does not block the rest of the run.
func (s *Service) SendBillReminders(ctx context.Context) error {
	if s.mailer == nil {
		s.log.Debug("Reminder run skipped: no mailer configured")
		return nil
	}

	today := s.now()
	from := today.AddDate(0, 0, -reminderWindowDays)
	to := today.AddDate(0, 0, reminderWindowDays)

	reminders, err := s.store.ListDueBillReminders(ctx, from, to)
	if err != nil {
		return err
	}

	sent := 0
	for _, reminder := range reminders {
		overdue := reminder.Bill.DueDate.Before(today.Truncate(24 * time.Hour))
		if err := s.mailer.SendBillReminder(reminder.Email, reminder.Bill, overdue); err != nil {
			s.log.Errorf("Failed to send reminder for bill %d: %v", reminder.Bill.ID, err)
			continue
		}
		sent++
	}
	s.log.Infof("Bill reminder run complete: %d of %d sent", sent, len(reminders))
	return nil
}
