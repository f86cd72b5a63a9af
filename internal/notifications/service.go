package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
	"github.com/barstockwise/backend/pkg/logger"
	"github.com/barstockwise/backend/pkg/pagination"
	"github.com/barstockwise/backend/pkg/redis"
)

// Service persists alerts and exposes the back office notification feed.
type Service interface {
	Dispatch(ctx context.Context, alerts []inventory.StockAlert)
	NotifyTableFreed(ctx context.Context, tableID uuid.UUID, number string)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type service struct {
	repo      Repository
	publisher redis.Publisher
	channel   string
	logg      *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// alertEvent is the wire shape published on the alert channel.
type alertEvent struct {
	Type         enums.NotificationType `json:"type"`
	Message      string                 `json:"message"`
	ProductID    *uuid.UUID             `json:"product_id,omitempty"`
	IngredientID *uuid.UUID             `json:"ingredient_id,omitempty"`
	TableID      *uuid.UUID             `json:"table_id,omitempty"`
	Remaining    string                 `json:"remaining,omitempty"`
	Unit         string                 `json:"unit,omitempty"`
}

// NewService wires notifications dependencies. The publisher may be nil when
// no Redis instance is configured; alerts are then only persisted.
func NewService(repo Repository, publisher redis.Publisher, channel string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		channel:   channel,
		logg:      logg,
	}, nil
}

// Dispatch records stock alerts and fans them out on the alert channel. It is
// called after the mutating transaction committed, so failures are logged and
// swallowed rather than undoing a settled sale.
func (s *service) Dispatch(ctx context.Context, alerts []inventory.StockAlert) {
	var errs error
	for _, alert := range alerts {
		event := alertEvent{
			Type:         alert.Type,
			Message:      alertMessage(alert),
			ProductID:    alert.ProductID,
			IngredientID: alert.IngredientID,
			Remaining:    alert.Remaining.String(),
			Unit:         alert.Unit,
		}
		errs = multierr.Append(errs, s.record(ctx, event))
	}
	if errs != nil {
		s.logg.Error(ctx, "stock alert dispatch incomplete", errs)
	}
}

// NotifyTableFreed records that a table became available again.
func (s *service) NotifyTableFreed(ctx context.Context, tableID uuid.UUID, number string) {
	event := alertEvent{
		Type:    enums.NotificationTypeTableFreed,
		Message: fmt.Sprintf("Table %s is available again", number),
		TableID: &tableID,
	}
	if err := s.record(ctx, event); err != nil {
		s.logg.Error(ctx, "table freed notification failed", err)
	}
}

func (s *service) record(ctx context.Context, event alertEvent) error {
	notification := &models.Notification{
		ID:           uuid.New(),
		Type:         event.Type,
		Message:      event.Message,
		ProductID:    event.ProductID,
		IngredientID: event.IngredientID,
		TableID:      event.TableID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if s.publisher == nil || s.channel == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.channel, payload); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

func alertMessage(alert inventory.StockAlert) string {
	remaining := alert.Remaining.String()
	if alert.Unit != "" {
		remaining += " " + alert.Unit
	}
	switch alert.Type {
	case enums.NotificationTypeStockOut:
		return fmt.Sprintf("%s is out of stock (%s remaining)", alert.Name, remaining)
	default:
		return fmt.Sprintf("%s is running low (%s remaining)", alert.Name, remaining)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listNotificationsParams{
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
