package domain

import "time"

const (
	EventPageView       = "page_view"
	EventAddToCart      = "add_to_cart"
	EventRemoveFromCart = "remove_from_cart"
	EventPurchase       = "purchase"
	EventSearch         = "search"

	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
)

// ClickstreamEvent is one user interaction on the storefront.
type ClickstreamEvent struct {
	EventID    string    `json:"event_id"`
	SessionID  string    `json:"session_id"`
	UserEmail  string    `json:"user_id"`
	Timestamp  time.Time `json:"event_timestamp"`
	Type       string    `json:"event_type"`
	ProductID  int       `json:"product_id"`
	PageURL    string    `json:"page_url"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
}
