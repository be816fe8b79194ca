package handler

import (
	dErrors "keystone/pkg/domain-errors"
)

// AnswersRequest carries UI-shaped answers keyed by field key.
type AnswersRequest struct {
	Answers map[string]any `json:"answers"`
}

// PositionRequest moves the wizard. Phase is 1-based, section 0-based.
type PositionRequest struct {
	Phase   *int `json:"phase"`
	Section *int `json:"section"`
}

func (r PositionRequest) Validate() error {
	if r.Phase == nil || r.Section == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "phase and section are required")
	}
	return nil
}
