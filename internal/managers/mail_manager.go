package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"
)

// MailMgr is an interface that outlines the contract for email management.
type MailMgr interface {
	SendActivationMail(email, firstName, activationLink string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
// It uses the Mailgun service for sending emails and the Hermes package for
// rendering the HTML and plain text variants.
type MailManager struct {
	Hermes      *hermes.Hermes
	Mailgun     mailgun.Mailgun
	From        string
	Environment string
}

const activationMailSubject = "Activate your account - AllNutrition"

// SendActivationMail sends the account activation email carrying the
// activation link. Outside production the send is skipped so development
// registrations do not hit the transport.
func (mm *MailManager) SendActivationMail(email, firstName, activationLink string) error {
	if mm.Environment != "production" {
		log.Info("Skipping activation mail in development mode")
		return nil
	}

	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: firstName,
			Intros: []string{
				"Welcome to AllNutrition! We're very excited to have you on board.",
				"Your account has been created but is not active yet.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "To activate your account, please click the button below:",
					Button: hermes.Button{
						Text: "Activate My Account",
						Link: activationLink,
					},
				},
			},
			Outros: []string{
				"If you did not sign up for AllNutrition, you can safely ignore this email.",
			},
		},
	}

	htmlBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return fmt.Errorf("failed to render activation mail: %w", err)
	}

	textBody, err := mm.Hermes.GeneratePlainText(mailBody)
	if err != nil {
		return fmt.Errorf("failed to render activation mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := mm.Mailgun.NewMessage(mm.From, activationMailSubject, textBody, email)
	message.SetHtml(htmlBody)
	if _, _, err = mm.Mailgun.Send(ctx, message); err != nil {
		log.Warning("Error sending activation mail: " + err.Error())
		return err
	}
	log.Debug("Activation mail sent to ", email)

	return nil
}

// NewMailManager initializes a new MailManager instance with configured
// Mailgun and Hermes settings.
func NewMailManager(domain, apiKey, environment string) MailMgr {
	log.Info("Initializing mail manager")

	if environment != "production" {
		log.Info("Running in development mode, email will not be sent to users")
	}

	mailgunInstance := mailgun.NewMailgun(domain, apiKey)

	return &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:      "AllNutrition",
				Link:      "https://allnutrition.dev/",
				Copyright: "© AllNutrition",
			},
		},
		Mailgun:     mailgunInstance,
		From:        fmt.Sprintf("AllNutrition <noreply@%s>", domain),
		Environment: environment,
	}
}
