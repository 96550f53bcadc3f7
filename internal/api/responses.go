package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// ConflictResponse carries an optional hint for recoverable conflicts,
// such as deactivating a class instead of deleting it.
type ConflictResponse struct {
	Error string `json:"error" example:"class has existing reservations"`
	Hint  string `json:"hint,omitempty" example:"deactivate the class instead"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
