package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/enums"
)

func setupChatTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE chat_messages (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_role TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME
	)`).Error)
	return db
}

func TestRepositoryListByOrderOldestFirst(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	base := time.Now().UTC().Truncate(time.Second)
	bodies := []string{"first", "second", "third"}
	for i, body := range bodies {
		message := models.ChatMessage{
			ID:         uuid.New(),
			OrderID:    orderID,
			SenderID:   uuid.New(),
			SenderRole: enums.ActorRoleCustomer,
			Body:       body,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, &message))
	}
	other := models.ChatMessage{ID: uuid.New(), OrderID: uuid.New(), SenderID: uuid.New(), SenderRole: enums.ActorRoleRider, Body: "noise", CreatedAt: base}
	require.NoError(t, repo.Create(ctx, &other))

	messages, err := repo.ListByOrder(ctx, orderID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, body := range bodies {
		require.Equal(t, body, messages[i].Body)
	}
}

func TestRepositoryListByOrderLimit(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		message := models.ChatMessage{
			ID:         uuid.New(),
			OrderID:    orderID,
			SenderID:   uuid.New(),
			SenderRole: enums.ActorRoleRestaurant,
			Body:       "msg",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, &message))
	}

	messages, err := repo.ListByOrder(ctx, orderID, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}
