package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/internal/bus"
	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
)

const maxMessageLength = 2000

// OrderLoader reads the order a message belongs to. Satisfied by the
// orders repository.
type OrderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// SendMessageInput carries one chat message from an order participant.
type SendMessageInput struct {
	OrderID    uuid.UUID
	SenderID   uuid.UUID
	SenderRole enums.ActorRole
	Body       string
}

// Service handles the per-order conversation between the customer, the
// restaurant and the assigned rider.
type Service interface {
	SendMessage(ctx context.Context, input SendMessageInput) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, orderID, requesterID uuid.UUID, role enums.ActorRole, limit int) ([]models.ChatMessage, error)
}

type service struct {
	repo   Repository
	orders OrderLoader
	bus    bus.Bus
	logg   *logger.Logger
}

// NewService wires chat dependencies.
func NewService(repo Repository, orders OrderLoader, b bus.Bus, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "chat repository required")
	}
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order loader required")
	}
	if b == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event bus required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, orders: orders, bus: b, logg: logg}, nil
}

func (s *service) SendMessage(ctx context.Context, input SendMessageInput) (*models.ChatMessage, error) {
	body := strings.TrimSpace(input.Body)
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.SenderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender id required")
	}
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(order, input.SenderID, input.SenderRole); err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		ID:         uuid.New(),
		OrderID:    order.ID,
		SenderID:   input.SenderID,
		SenderRole: input.SenderRole,
		Body:       body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist chat message")
	}

	s.bus.Publish(ctx, bus.TopicMessageSent, bus.MessageSentPayload{
		OrderID:   order.ID,
		MessageID: message.ID,
		SenderID:  message.SenderID,
		Role:      message.SenderRole,
		Body:      message,
	})

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Debug(logCtx, "chat message sent")
	return message, nil
}

func (s *service) ListMessages(ctx context.Context, orderID, requesterID uuid.UUID, role enums.ActorRole, limit int) ([]models.ChatMessage, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if requesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requester id required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(order, requesterID, role); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListByOrder(ctx, orderID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chat messages")
	}
	return messages, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// authorizeParticipant admits the order's customer, its restaurant,
// its currently assigned rider and platform admins.
func authorizeParticipant(order *models.Order, actorID uuid.UUID, role enums.ActorRole) error {
	switch role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleCustomer:
		if order.UserID == actorID {
			return nil
		}
	case enums.ActorRoleRestaurant:
		if order.RestaurantID == actorID {
			return nil
		}
	case enums.ActorRoleRider:
		if order.RiderID != nil && *order.RiderID == actorID {
			return nil
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown sender role")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a participant of this order")
}
