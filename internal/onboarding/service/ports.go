package service

import (
	"context"

	"keystone/internal/onboarding/models"
)

// Remote is the onboarding backend the service submits to.
type Remote interface {
	SaveStep(ctx context.Context, role models.Role, step int, payload models.Payload) (*models.StepResponse, error)
	FetchProgress(ctx context.Context, role models.Role) (*models.StepResponse, error)
	UploadDocument(ctx context.Context, up models.UploadRequest) (*models.Document, error)
	DeleteDocument(ctx context.Context, projectID, documentID string) error
}
