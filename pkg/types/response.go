package types

type SuccessEnvelope struct {
	Data any `json:"data"`
	// Warning carries the non-fatal outcome of a partially applied
	// purchase. The request still succeeded; the user is not re-charged.
	Warning string `json:"warning,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
