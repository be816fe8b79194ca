package models

import (
	"errors"
	"io"

	dErrors "keystone/pkg/domain-errors"
)

// Payload is a backend-shaped request or response body.
type Payload map[string]any

// StepResponse is the remote save-step / fetch-progress envelope.
type StepResponse struct {
	Status         bool                `json:"status"`
	CurrentStep    int                 `json:"current_step"`
	CompletedSteps []int               `json:"completed_steps"`
	IsDraft        bool                `json:"is_draft"`
	Data           Payload             `json:"data"`
	Message        string              `json:"message,omitempty"`
	Errors         map[string][]string `json:"errors,omitempty"`
}

// Failure reports a status:false envelope as an error. A field map makes it
// a validation error; without one it is an unavailable failure. It is nil
// for a successful envelope.
func (r *StepResponse) Failure() error {
	if r.Status {
		return nil
	}
	msg := r.Message
	if len(r.Errors) > 0 {
		if msg == "" {
			msg = "submitted answers were rejected"
		}
		return dErrors.Wrap(&ValidationError{Message: msg, Fields: r.Errors}, dErrors.CodeValidation, msg)
	}
	if msg == "" {
		msg = "onboarding service reported a failure"
	}
	return dErrors.Wrap(errors.New(msg), dErrors.CodeUnavailable, "onboarding service request failed")
}

// UploadRequest carries one document to the remote document boundary.
type UploadRequest struct {
	ProjectID    string
	File         io.Reader
	FileName     string
	Size         int64
	Category     string
	FileType     string
	Subcategory  string
	DocumentName string
	Notes        string
}

// Document is the normalized document record returned after upload.
type Document struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	FileType string `json:"file_type"`
}
