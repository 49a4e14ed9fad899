package applications

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"merchanthaus.com/web/internal/forms"
)

// ServiceDeps wires a Service.
type ServiceDeps struct {
	Store        Store
	Notifier     Notifier
	Recipient    string
	DashboardURL string
	Clock        func() time.Time
}

// Service stores merchant applications and notifies onboarding. It implements
// forms.Transport for the merchant-application form.
type Service struct {
	store        Store
	notifier     Notifier
	recipient    string
	dashboardURL string
	now          func() time.Time
}

// NewService validates deps.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("applications: store is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("applications: notifier is required")
	}
	if strings.TrimSpace(deps.Recipient) == "" {
		return nil, errors.New("applications: notification recipient is required")
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:        deps.Store,
		notifier:     deps.Notifier,
		recipient:    strings.TrimSpace(deps.Recipient),
		dashboardURL: strings.TrimRight(strings.TrimSpace(deps.DashboardURL), "/"),
		now:          now,
	}, nil
}

// Deliver inserts the application and then publishes its notification. A failed insert
// skips the notification; a failed notification is reported even though the record
// stays stored. A filled honeypot is accepted without storing or notifying.
func (s *Service) Deliver(ctx context.Context, schema *forms.Schema, sub forms.Submission) error {
	if schema.Name != forms.MerchantApplicationForm {
		return fmt.Errorf("applications: cannot deliver form %q", schema.Name)
	}
	ctx, span := otel.Tracer("merchanthaus.com/web/internal/applications").Start(ctx, "applications.Submit")
	defer span.End()
	if sub.Honeypot() {
		// looks accepted to the bot; nothing is stored or sent
		span.SetAttributes(attribute.Bool("application.spam", true))
		return nil
	}

	now := s.now().UTC()
	app := FromSubmission(sub)
	app.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	app.CreatedAt = now
	span.SetAttributes(attribute.String("application.id", app.ID))

	if err := s.store.Insert(ctx, app); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store application: %w", err)
	}
	if err := s.notifier.Notify(ctx, s.notification(app)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify onboarding: %w", err)
	}
	return nil
}

func (s *Service) notification(app Application) Notification {
	dashboard := s.dashboardURL
	if dashboard != "" {
		dashboard += "/applications/" + url.PathEscape(app.ID)
	}
	return Notification{
		Type:      NotificationType,
		Recipient: s.recipient,
		Merchant: MerchantSummary{
			ID:          app.ID,
			DBAName:     app.DBAName,
			ContactName: app.ContactName,
			Email:       app.Email,
			Phone:       app.Phone,
			Products:    append([]string(nil), app.Products...),
		},
		DashboardURL: dashboard,
	}
}
