// Package apierror writes RFC 9457 problem documents for the heldairy API.
package apierror

// ProblemDetails is an RFC 9457 problem document.
// See https://www.rfc-editor.org/rfc/rfc9457.html
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extension members
	RequestID   string       `json:"request_id,omitempty"`
	UserMessage string       `json:"user_message,omitempty"` // safe to show in the app
	RetryAfter  *int         `json:"retry_after,omitempty"`  // seconds, for 429 and 503
	Action      string       `json:"action,omitempty"`       // client hint such as "authenticate" or "enable_ai"
	Errors      []FieldError `json:"errors,omitempty"`
}

// FieldError is one failed field of a validation problem
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (p *ProblemDetails) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// WithInstance sets the instance member, usually the request path
func (p *ProblemDetails) WithInstance(instance string) *ProblemDetails {
	p.Instance = instance
	return p
}
