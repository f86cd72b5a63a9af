package enums

import "fmt"

// NotificationType labels alerts emitted by the stock engines.
type NotificationType string

const (
	NotificationTypeStockLow   NotificationType = "stock_low"
	NotificationTypeStockOut   NotificationType = "stock_out"
	NotificationTypeTableFreed NotificationType = "table_freed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeStockLow,
	NotificationTypeStockOut,
	NotificationTypeTableFreed,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
