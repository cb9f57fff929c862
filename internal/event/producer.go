package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerly/account-service/internal/domain"
	pkgkafka "github.com/ledgerly/account-service/pkg/kafka"
)

// Kafka topic constants for account domain events.
const (
	TopicAccountRegistered    = "billing.account.registered"
	TopicAccountPasswordReset = "billing.account.password_reset"
)

// Aggregate type constant.
const AggregateTypeAccount = "account"

// Source identifier for events originating from this service.
const SourceAccountService = "account-service"

// AccountRegisteredData is the payload for an account.registered event.
type AccountRegisteredData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	Google   bool   `json:"google"`
}

// AccountPasswordResetData is the payload for an account.password_reset event.
type AccountPasswordResetData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Producer publishes account domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the account service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishAccountRegistered publishes an account.registered event.
func (p *Producer) PublishAccountRegistered(ctx context.Context, user *domain.User) error {
	data := AccountRegisteredData{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
		Google:   user.GoogleID != "",
	}

	event, err := pkgkafka.NewEvent(TopicAccountRegistered, user.ID, AggregateTypeAccount, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create account.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountRegistered, event); err != nil {
		return fmt.Errorf("publish account.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published account.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishAccountPasswordReset publishes an account.password_reset event.
func (p *Producer) PublishAccountPasswordReset(ctx context.Context, user *domain.User) error {
	data := AccountPasswordResetData{
		UserID: user.ID,
		Email:  user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicAccountPasswordReset, user.ID, AggregateTypeAccount, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create account.password_reset event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountPasswordReset, event); err != nil {
		return fmt.Errorf("publish account.password_reset event: %w", err)
	}

	p.logger.DebugContext(ctx, "published account.password_reset event",
		slog.String("user_id", user.ID),
	)

	return nil
}
