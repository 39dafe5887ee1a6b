package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/config"
	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/metrics"
	"github.com/mealdash/mealdash-backend/pkg/pagination"
)

// Service persists notifications, serves the inbox reads of users and
// riders, and delivers device pushes. The Notify methods are
// best-effort so order mutations never fail on notification trouble.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)

	NotifyUser(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
	NotifyRestaurant(ctx context.Context, restaurantID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)
	NotifyRider(ctx context.Context, riderID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID)

	PushRiderBroadcast(ctx context.Context, rider models.Rider, order *models.Order) error
}

type service struct {
	repo    Repository
	pusher  Pusher
	cfg     config.DispatchConfig
	logg    *logger.Logger
	metrics *metrics.DispatchMetrics
}

// ListParams configures pagination for the notification inbox.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies. Metrics may be nil.
func NewService(repo Repository, pusher Pusher, cfg config.DispatchConfig, logg *logger.Logger, m *metrics.DispatchMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if pusher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pusher required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:    repo,
		pusher:  pusher,
		cfg:     cfg,
		logg:    logg,
		metrics: m,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Limit:       params.Limit,
		UnreadOnly:  params.UnreadOnly,
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
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) NotifyUser(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID) {
	s.notify(s.logg.WithUserID(ctx, userID.String()), userID, s.repo.FindUserToken, kind, title, message, orderID, true)
}

// NotifyRestaurant pushes to the restaurant's device. Restaurants have
// no inbox so nothing is persisted.
func (s *service) NotifyRestaurant(ctx context.Context, restaurantID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID) {
	s.notify(s.logg.WithRestaurantID(ctx, restaurantID.String()), restaurantID, s.repo.FindRestaurantToken, kind, title, message, orderID, false)
}

func (s *service) NotifyRider(ctx context.Context, riderID uuid.UUID, kind enums.NotificationType, title, message string, orderID *uuid.UUID) {
	s.notify(s.logg.WithRiderID(ctx, riderID.String()), riderID, s.repo.FindRiderToken, kind, title, message, orderID, true)
}

type tokenLookup func(ctx context.Context, id uuid.UUID) (*string, error)

func (s *service) notify(ctx context.Context, recipientID uuid.UUID, lookup tokenLookup, kind enums.NotificationType, title, message string, orderID *uuid.UUID, persist bool) {
	if recipientID == uuid.Nil {
		s.logg.Warn(ctx, "notification dropped, no recipient")
		return
	}

	if persist {
		row := &models.Notification{
			UserID:  recipientID,
			Type:    kind,
			Title:   title,
			Message: message,
			OrderID: orderID,
		}
		if err := s.repo.Create(ctx, row); err != nil {
			s.logg.Error(ctx, "failed to persist notification", err)
		}
	}

	token, err := lookup(ctx, recipientID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.logg.Error(ctx, "failed to load push token", err)
		}
		return
	}
	if token == nil || *token == "" {
		return
	}

	note := PushNote{Kind: kind, Title: title, Message: message, OrderID: orderID}
	if err := pushWithRetry(ctx, s.pusher, *token, note, s.cfg.PushTimeout, s.cfg.PushMaxAttempts); err != nil {
		s.metrics.IncPushFailure(string(kind))
		s.logg.Error(ctx, "push delivery failed", err)
	}
}

// PushRiderBroadcast offers an order to one rider's device. Unlike the
// Notify methods the error is returned so the dispatcher can collect
// per-rider failures.
func (s *service) PushRiderBroadcast(ctx context.Context, rider models.Rider, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if rider.NotificationToken == nil || *rider.NotificationToken == "" {
		return nil
	}

	ctx = s.logg.WithRiderID(ctx, rider.ID.String())
	note := PushNote{
		Kind:    enums.NotificationTypeZoneBroadcast,
		Title:   "New order available",
		Message: fmt.Sprintf("Order %s is ready for pickup near you.", order.Code),
		OrderID: &order.ID,
	}
	if err := pushWithRetry(ctx, s.pusher, *rider.NotificationToken, note, s.cfg.PushTimeout, s.cfg.PushMaxAttempts); err != nil {
		return fmt.Errorf("push broadcast: %w", err)
	}
	return nil
}
