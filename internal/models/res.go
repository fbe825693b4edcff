package models

// ApiResponse is the envelope every handler returns: bookings, packages and
// auth all share it. Success carries Data plus an optional human-readable
// message; failures carry Error only. The pagination fields are populated by
// PaginatedResponse alone and omitted from every other response.
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Page    int         `json:"page,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Total   int         `json:"total,omitempty"`
}

// SuccessResponse wraps a payload. Pass an empty message for plain reads.
func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// ErrorResponse wraps a failure. The string is the wrapped domain error, so
// clients can see which rule rejected the request.
func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

// PaginatedResponse wraps one page of the admin booking list together with
// the page geometry the client needs to render paging controls.
func PaginatedResponse(data interface{}, page, limit, total int) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Page:    page,
		Limit:   limit,
		Total:   total,
	}
}
