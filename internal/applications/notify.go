package applications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// NotificationType tags every onboarding notification.
const NotificationType = "merchant_application"

// MerchantSummary is the short description of an applicant sent to onboarding.
type MerchantSummary struct {
	ID          string   `json:"id"`
	DBAName     string   `json:"dbaName"`
	ContactName string   `json:"contactName"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Products    []string `json:"products"`
}

// Notification is the fixed payload announcing a new application.
type Notification struct {
	Type         string          `json:"type"`
	Recipient    string          `json:"recipient"`
	Merchant     MerchantSummary `json:"merchant"`
	DashboardURL string          `json:"dashboardUrl"`
}

// Notifier announces stored applications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// PubSubNotifier publishes notifications as JSON messages.
type PubSubNotifier struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubNotifier publishes to topic.
func NewPubSubNotifier(topic *pubsub.Topic) (*PubSubNotifier, error) {
	if topic == nil {
		return nil, errors.New("pubsub notifier: topic is required")
	}
	return &PubSubNotifier{topic: topic, marshal: json.Marshal}, nil
}

// Notify publishes n and waits for the server ack.
func (p *PubSubNotifier) Notify(ctx context.Context, n Notification) error {
	data, err := p.marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":          n.Type,
			"applicationId": n.Merchant.ID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log; used when no topic is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier logs through logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("merchant application notification",
		zap.String("type", n.Type),
		zap.String("recipient", n.Recipient),
		zap.String("application_id", n.Merchant.ID),
		zap.String("dba_name", n.Merchant.DBAName),
		zap.Strings("products", n.Merchant.Products),
		zap.String("dashboard_url", n.DashboardURL),
	)
	return nil
}
