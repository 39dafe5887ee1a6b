package orders

import (
	"net/http"

	"github.com/mealdash/mealdash-backend/api/middleware"
	"github.com/mealdash/mealdash-backend/api/responses"
	"github.com/mealdash/mealdash-backend/api/validators"
	"github.com/mealdash/mealdash-backend/internal/chat"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
)

const defaultMessagePageSize = 50

type sendMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// SendMessage posts a chat message on an order the caller participates in.
func SendMessage(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		senderID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload sendMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.SendMessage(r.Context(), chat.SendMessageInput{
			OrderID:    orderID,
			SenderID:   senderID,
			SenderRole: middleware.RoleFromContext(r.Context()),
			Body:       payload.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// ListMessages returns the order conversation, oldest first.
func ListMessages(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		requesterID, err := actorUUID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultMessagePageSize, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messages, err := svc.ListMessages(r.Context(), orderID, requesterID, middleware.RoleFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"messages": messages})
	}
}
