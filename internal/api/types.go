package api

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the JSON body of mutation endpoints with no payload.
type SuccessResponse struct {
	Message string `json:"message"`
}
