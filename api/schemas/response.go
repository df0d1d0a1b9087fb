package schemas

import "fmt"

// Status is the outcome of an action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Response is the uniform result of every action protocol. Ordinary
// not-found conditions are reported as a failure Response with a readable
// reason, never as an error.
type Response struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success builds a successful response. data may be nil.
func Success(message string, data any) Response {
	return Response{Status: StatusSuccess, Message: message, Data: data}
}

// Failure builds a failed response carrying the reason.
func Failure(message string) Response {
	return Response{Status: StatusFailure, Message: message}
}

// Failuref is Failure with formatting.
func Failuref(format string, args ...any) Response {
	return Failure(fmt.Sprintf(format, args...))
}

func (r Response) IsSuccess() bool { return r.Status == StatusSuccess }

func (r Response) String() string {
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}
