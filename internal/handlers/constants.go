package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidQuery       = "Invalid query parameter"
)

// APIBasePath prefixes every versioned route
const APIBasePath = "/api/v1"
