// Package notification delivers registration and waitlist emails. Every
// send is best-effort from the caller's point of view: delivery failures
// are returned so call sites can log them, but no call site propagates
// them as request failures.
package notification

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/charmbracelet/log"

	"github.com/terpspark/terpspark-api/internal/config"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/domain/registration"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// Notifier is the contract the registration and waitlist services call.
type Notifier interface {
	SendRegistrationConfirmation(user *participant.User, ev *event.Event, reg *registration.Registration) error
	SendCancellationConfirmation(user *participant.User, ev *event.Event, reg *registration.Registration) error
	SendWaitlistConfirmation(user *participant.User, ev *event.Event, position int) error
	SendWaitlistPromotion(user *participant.User, ev *event.Event, reg *registration.Registration, oldPosition int) error
}

// EmailService sends notification emails, either through Amazon SES or as
// log lines in mock mode for local development.
type EmailService struct {
	mode   string
	sender string
	ses    sesiface.SESAPI
	log    *log.Logger
}

// NewEmailService builds an EmailService from configuration. In "ses" mode
// it opens an AWS session for the configured region; any other mode value
// falls back to mock delivery.
func NewEmailService(cfg *config.Config) (*EmailService, error) {
	svc := &EmailService{
		mode:   cfg.Email.Mode,
		sender: cfg.Email.Sender,
		log:    logger.Notification(),
	}

	if cfg.Email.Mode == "ses" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.Email.Region),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		svc.ses = ses.New(sess)
	}

	return svc, nil
}

func (s *EmailService) SendRegistrationConfirmation(user *participant.User, ev *event.Event, reg *registration.Registration) error {
	subject := fmt.Sprintf("Registration Confirmed - %s", ev.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou're registered for %s on %s at %s.\n\nTicket Code: %s\nGuests: %d\n\nPresent your QR code at event check-in.\n\n- The TerpSpark Team\n",
		user.Name, ev.Title, ev.Date.Format("January 2, 2006"), ev.Venue, reg.TicketCode, len(reg.Guests),
	)
	return s.send(user.Email, subject, body)
}

func (s *EmailService) SendCancellationConfirmation(user *participant.User, ev *event.Event, reg *registration.Registration) error {
	subject := fmt.Sprintf("Registration Cancelled - %s", ev.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour registration for %s (ticket %s) has been cancelled.\n\nWe hope to see you at another event soon.\n\n- The TerpSpark Team\n",
		user.Name, ev.Title, reg.TicketCode,
	)
	return s.send(user.Email, subject, body)
}

func (s *EmailService) SendWaitlistConfirmation(user *participant.User, ev *event.Event, position int) error {
	subject := fmt.Sprintf("You're on the Waitlist - %s", ev.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou've been added to the waitlist for %s at position #%d.\n\nWe'll register you automatically if a spot opens up.\n\n- The TerpSpark Team\n",
		user.Name, ev.Title, position,
	)
	return s.send(user.Email, subject, body)
}

func (s *EmailService) SendWaitlistPromotion(user *participant.User, ev *event.Event, reg *registration.Registration, oldPosition int) error {
	subject := fmt.Sprintf("You're Off the Waitlist - %s", ev.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nA spot opened up and you've been automatically registered for %s on %s.\n\nTicket Code: %s\nPrevious Waitlist Position: #%d\n\nCan't attend? Please cancel your registration to free the spot for others.\n\n- The TerpSpark Team\n",
		user.Name, ev.Title, ev.Date.Format("January 2, 2006"), reg.TicketCode, oldPosition,
	)
	return s.send(user.Email, subject, body)
}

const charSet = "UTF-8"

func (s *EmailService) send(to, subject, body string) error {
	if s.mode != "ses" || s.ses == nil {
		s.log.Info("mock email", "to", to, "subject", subject)
		s.log.Debug("mock email body", "body", body)
		return nil
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(to)},
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Text: &ses.Content{
					Charset: aws.String(charSet),
					Data:    aws.String(body),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String(charSet),
				Data:    aws.String(subject),
			},
		},
		Source: aws.String(s.sender),
	}

	if _, err := s.ses.SendEmail(input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
