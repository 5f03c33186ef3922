package models

// ErrorResponse représente une réponse d'erreur
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse représente une réponse de succès générique
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidateCodeResponse représente la réponse de validation d'un code d'accès.
// Validate est purement consultatif : un validate qui réussit ne réserve rien.
type ValidateCodeResponse struct {
	Valid         bool   `json:"valid"`
	Message       string `json:"message"`
	Code          string `json:"code,omitempty"`
	Description   string `json:"description,omitempty"`
	RemainingUses int    `json:"remainingUses,omitempty"`
}

// ConsumeCodeResponse représente la réponse de consommation d'un code d'accès
type ConsumeCodeResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Code          string `json:"code,omitempty"`
	Description   string `json:"description,omitempty"`
	RemainingUses int    `json:"remainingUses"`
}
