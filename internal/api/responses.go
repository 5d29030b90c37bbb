package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type NextDeliveryResponse struct {
	SubscriptionID int    `json:"subscription_id"`
	NextDelivery   string `json:"next_delivery"`
}

type StatusResponse struct {
	SubscriptionID int    `json:"subscription_id"`
	Status         string `json:"status"`
}
