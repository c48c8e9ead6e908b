package dto

// UnreadCountResponse reports the unread notification count.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unreadCount"`
}

// CountResponse wraps a scalar count.
type CountResponse struct {
	Count int64 `json:"count"`
}
