package types

// SuccessEnvelope wraps every 2xx body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// DataEnvelope is SuccessEnvelope with a concrete payload, for clients
// decoding a remote shop backend.
type DataEnvelope[T any] struct {
	Data T `json:"data"`
}

// ErrorEnvelope wraps every non-2xx body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError is the public face of a pkg/errors.Error. RequestID echoes the
// X-Request-Id header so staff can quote it when reporting a failure.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
