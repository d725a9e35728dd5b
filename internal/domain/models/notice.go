package models

import "time"

// NoticeLevel distinguishes success toasts from failure toasts.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-visible, short-lived message emitted by the reconciler
// after each mutating operation. Expiry replaces the UI's dismissal timer.
type Notice struct {
	Level     NoticeLevel `json:"level"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Stats is the aggregate summary shown in the header cards.
type Stats struct {
	PendingCount  int     `json:"pending_count"`
	ShippedCount  int     `json:"shipped_count"`
	ReceivedCount int     `json:"received_count"`
	TotalValue    float64 `json:"total_value"`
}
