package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
)

// ErrEmailSettingsUnavailable indicates the settings store cannot be reached.
var ErrEmailSettingsUnavailable = errors.New("email service: settings unavailable")

// ErrEmailPublisherUnavailable indicates no publisher is configured for dispatch.
var ErrEmailPublisherUnavailable = errors.New("email service: publisher unavailable")

// The notification settings record is site-wide admin state, stored under a
// fixed profile in the client-state space.
const emailSettingsProfile = "site"

// SettingsStore persists the notification settings record.
type SettingsStore interface {
	Load(ctx context.Context, profileID string) (domain.EmailSettings, error)
	Save(ctx context.Context, profileID string, settings domain.EmailSettings) error
}

// EmailServiceDeps wires the settings store and the job publisher.
type EmailServiceDeps struct {
	Store     SettingsStore
	Publisher EmailJobPublisher
	Clock     func() time.Time
	IDGen     func() string
	Logger    func(context.Context, string, map[string]any)
}

type emailService struct {
	store     SettingsStore
	publisher EmailJobPublisher
	policy    *bluemonday.Policy
	now       func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

var _ EmailService = (*emailService)(nil)

// NewEmailService constructs the settings store and order-email dispatcher.
func NewEmailService(deps EmailServiceDeps) (EmailService, error) {
	if deps.Store == nil {
		return nil, errors.New("email service: settings store is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return "ej_" + ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &emailService{
		store:     deps.Store,
		publisher: deps.Publisher,
		policy:    bluemonday.UGCPolicy(),
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Settings returns the stored record, or the default record on first load.
func (s *emailService) Settings(ctx context.Context) (EmailSettings, error) {
	settings, err := s.store.Load(ctx, emailSettingsProfile)
	if err != nil {
		return EmailSettings{}, ErrEmailSettingsUnavailable
	}
	return settings, nil
}

// UpdateSettings shallow-merges the set fields and persists the whole record.
// A notify flag may be enabled while its address is still empty; that class
// is skipped at dispatch time.
func (s *emailService) UpdateSettings(ctx context.Context, cmd UpdateEmailSettingsCommand) (EmailSettings, error) {
	settings, err := s.store.Load(ctx, emailSettingsProfile)
	if err != nil {
		return EmailSettings{}, ErrEmailSettingsUnavailable
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	applyBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	applyString(&settings.AdminEmail, cmd.AdminEmail)
	applyString(&settings.DispatchEmail, cmd.DispatchEmail)
	applyString(&settings.AccountsEmail, cmd.AccountsEmail)
	applyBool(&settings.NotifyAdmin, cmd.NotifyAdmin)
	applyBool(&settings.NotifyDispatch, cmd.NotifyDispatch)
	applyBool(&settings.NotifyAccounts, cmd.NotifyAccounts)
	applyString(&settings.AdminTemplate, cmd.AdminTemplate)
	applyString(&settings.DispatchTemplate, cmd.DispatchTemplate)
	applyString(&settings.AccountsTemplate, cmd.AccountsTemplate)

	if err := s.store.Save(ctx, emailSettingsProfile, settings); err != nil {
		return EmailSettings{}, ErrEmailSettingsUnavailable
	}
	return settings, nil
}

type recipientClass struct {
	name     string
	notify   bool
	address  string
	template string
}

// DispatchOrderEmails publishes one job per enabled recipient class and
// returns the broker message IDs. A class with the notify flag set but no
// address logs a warning and produces no message.
func (s *emailService) DispatchOrderEmails(ctx context.Context, order Order) ([]string, error) {
	if s.publisher == nil {
		return nil, ErrEmailPublisherUnavailable
	}

	settings, err := s.store.Load(ctx, emailSettingsProfile)
	if err != nil {
		return nil, ErrEmailSettingsUnavailable
	}

	classes := []recipientClass{
		{name: "admin", notify: settings.NotifyAdmin, address: settings.AdminEmail, template: settings.AdminTemplate},
		{name: "dispatch", notify: settings.NotifyDispatch, address: settings.DispatchEmail, template: settings.DispatchTemplate},
		{name: "accounts", notify: settings.NotifyAccounts, address: settings.AccountsEmail, template: settings.AccountsTemplate},
	}

	var messageIDs []string
	for _, class := range classes {
		if !class.notify {
			continue
		}
		address := strings.TrimSpace(class.address)
		if address == "" {
			s.logger(ctx, "email.class_skipped_no_address", map[string]any{
				"class":   class.name,
				"orderID": order.ID,
			})
			continue
		}

		msg := EmailJobMessage{
			JobID:          s.newID(),
			OrderID:        order.ID,
			RecipientClass: class.name,
			Recipient:      address,
			Subject:        fmt.Sprintf("Order %s confirmed", order.OrderNumber),
			Body:           s.renderBody(class.template, order),
			QueuedAt:       s.now(),
		}

		messageID, err := s.publisher.PublishEmailJob(ctx, msg)
		if err != nil {
			return messageIDs, fmt.Errorf("email service: publish %s job: %w", class.name, err)
		}
		messageIDs = append(messageIDs, messageID)
	}

	return messageIDs, nil
}

// renderBody fills the class template, sanitising the stored markup first.
// With no template configured a plain default body is used.
func (s *emailService) renderBody(template string, order Order) string {
	body := strings.TrimSpace(template)
	if body == "" {
		body = "Order {{orderNumber}} has been confirmed. Total: {{total}}."
	} else {
		body = s.policy.Sanitize(body)
	}

	replacer := strings.NewReplacer(
		"{{orderNumber}}", order.OrderNumber,
		"{{orderId}}", order.ID,
		"{{total}}", formatMinorUnits(order.Totals.Total, order.Currency),
		"{{contactEmail}}", order.ContactEmail,
	)
	return replacer.Replace(body)
}

func formatMinorUnits(amount int64, currency string) string {
	major := amount / 100
	minor := amount % 100
	if minor < 0 {
		minor = -minor
	}
	return fmt.Sprintf("%d.%02d %s", major, minor, strings.ToUpper(strings.TrimSpace(currency)))
}
