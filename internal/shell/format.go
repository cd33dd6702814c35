package shell

import (
	"fmt"

	"bookorder/internal/model"
)

var statusLabels = map[model.OrderStatus]string{
	model.OrderStatusPending:    "pending",
	model.OrderStatusVerified:   "verified",
	model.OrderStatusProcessing: "processing",
	model.OrderStatusShipped:    "shipped",
	model.OrderStatusDelivered:  "delivered",
	model.OrderStatusCancelled:  "cancelled",
}

// statusLabel renders unknown statuses as pending.
func statusLabel(status model.OrderStatus) string {
	return statusLabels[status.Normalize()]
}

func money(amount int64) string {
	return fmt.Sprintf("Tk %d", amount)
}

// formatTime shows t in local time.
func formatTime(t model.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
