package errors

import "fmt"

func AlreadyReported() *APIError {
	return New(ErrAlreadyReported, "you have already reported this content")
}

func AlreadyRegistered() *APIError {
	return New(ErrAlreadyRegistered, "you are already registered for this event")
}

func NotRegistered() *APIError {
	return New(ErrNotRegistered, "you are not registered for this event")
}

func EventFull() *APIError {
	return New(ErrEventFull, "event is full")
}

func EventNotActive() *APIError {
	return New(ErrEventNotActive, "event is not open for registration")
}

func NotADoctor() *APIError {
	return New(ErrNotADoctor, "user is not a doctor")
}

func AlreadyApproved() *APIError {
	return New(ErrAlreadyApproved, "doctor is already approved")
}

func AlreadyRejected() *APIError {
	return New(ErrAlreadyRejected, "doctor is already rejected")
}

// ApprovalRequired carries the doctor's current approval status in Details
func ApprovalRequired(status string) *APIError {
	return New(ErrApprovalRequired, "doctor approval is required for this action").
		WithDetails(fmt.Sprintf("approval_status=%s", status))
}
