package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrderPlaced   NotificationType = "order_placed"
	NotificationTypeOrderStatus   NotificationType = "order_status"
	NotificationTypeRiderAssigned NotificationType = "rider_assigned"
	NotificationTypeRiderRemoved  NotificationType = "rider_removed"
	NotificationTypeZoneBroadcast NotificationType = "zone_broadcast"
	NotificationTypeChatMessage   NotificationType = "chat_message"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderStatus,
	NotificationTypeRiderAssigned,
	NotificationTypeRiderRemoved,
	NotificationTypeZoneBroadcast,
	NotificationTypeChatMessage,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
