package service

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/service/mocks"
	"keystone/internal/onboarding/store/state"
	"keystone/internal/onboarding/wizard"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/requestcontext"
)

const identity = "ada@example.com"

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	remote   *mocks.MockRemote
	registry *wizard.Registry
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sch, err := schema.LoadEmbedded(models.RoleSponsor)
	s.Require().NoError(err)

	s.ctrl = gomock.NewController(s.T())
	s.remote = mocks.NewMockRemote(s.ctrl)
	s.registry = wizard.NewRegistry(models.RoleSponsor, sch, state.NewInMemory(),
		wizard.WithRegistryLogger(logger),
		wizard.WithStoreOptions(wizard.WithLogger(logger)),
	)
	s.service = New(wizard.Registries{models.RoleSponsor: s.registry}, s.remote, WithLogger(logger))

	ctx := requestcontext.WithIdentity(context.Background(), identity)
	s.ctx = requestcontext.WithTime(ctx, time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
}

func (s *ServiceSuite) TestUnknownRole() {
	_, err := s.service.State(s.ctx, models.RoleInvestor)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestPhaseUnknownSlugRedirectsToLanding() {
	_, err := s.service.Phase(s.ctx, models.RoleSponsor, "nope")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	var notFound *PhaseNotFoundError
	s.Require().True(errors.As(err, &notFound))
	s.Equal(schema.Coordinate{Phase: 1, Section: 0}, notFound.Redirect)
	s.Equal("business-information", notFound.RedirectSlug)
}

func (s *ServiceSuite) TestPhaseResolvesVisibleFields() {
	_, err := s.service.UpdateAnswers(s.ctx, models.RoleSponsor, map[string]any{
		"sec_registered": "no",
		"has_litigation": "yes",
	})
	s.Require().NoError(err)

	view, err := s.service.Phase(s.ctx, models.RoleSponsor, "business-information")
	s.Require().NoError(err)
	s.Equal(1, view.Index)
	s.Require().Len(view.Sections, 5)

	compliance := view.Sections[3]
	s.Equal("compliance", compliance.Key)
	keys := make([]string, 0, len(compliance.VisibleFields))
	for _, f := range compliance.VisibleFields {
		keys = append(keys, f.Key)
	}
	s.NotContains(keys, "sec_registration_number")
	s.Contains(keys, "litigation_details")
}

func (s *ServiceSuite) TestUpdateAnswersRejectsEmpty() {
	_, err := s.service.UpdateAnswers(s.ctx, models.RoleSponsor, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestSetPositionClampsOnRead() {
	view, err := s.service.SetPosition(s.ctx, models.RoleSponsor, 9, 9)
	s.Require().NoError(err)
	s.Equal(9, view.State.CurrentPhase)
	s.Equal(schema.Coordinate{Phase: 3, Section: 0}, view.Position)
	s.Equal("review-and-submit", view.CurrentSection)
}

func (s *ServiceSuite) TestCompleteSection() {
	view, err := s.service.CompleteSection(s.ctx, models.RoleSponsor, "review-and-submit")
	s.Require().NoError(err)
	s.Equal([]string{"review"}, view.CompletedPhases)

	_, err = s.service.CompleteSection(s.ctx, models.RoleSponsor, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func bankingAnswers() map[string]any {
	return map[string]any{
		"bank_name":           "First Bank",
		"account_holder_name": "Acme Capital LLC",
		"account_number":      "GB29NWBK60161331926819",
		"routing_number":      "021000021",
	}
}

func (s *ServiceSuite) TestSubmitSection() {
	s.remote.EXPECT().
		SaveStep(gomock.Any(), models.RoleSponsor, 8, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Role, _ int, payload models.Payload) (*models.StepResponse, error) {
			s.Equal("021000021", payload["routing_number"])
			s.Equal("021000021", payload["sort_code"])
			s.Equal("Acme Capital LLC", payload["account_holder"])
			rep, ok := payload["representative"].(map[string]any)
			s.Require().True(ok)
			s.Equal(identity, rep["email"])
			return &models.StepResponse{
				Status:         true,
				CurrentStep:    9,
				CompletedSteps: []int{6, 7, 8},
				IsDraft:        true,
				Data:           models.Payload{"bank_name": "First Bank of Ohio"},
			}, nil
		})

	res, err := s.service.SubmitSection(s.ctx, models.RoleSponsor, "banking-information", bankingAnswers())
	s.Require().NoError(err)

	s.Require().NotNil(res.Congrats)
	s.Equal("Banking details saved", res.Congrats.Title)
	s.True(res.IsDraft)
	s.NotEmpty(res.Warnings)

	st := res.State
	s.Equal(schema.Coordinate{Phase: 3, Section: 0}, st.Position)
	s.ElementsMatch([]string{"banking-information", "representative-details", "identity-verification"}, st.State.CompletedSections)
	s.Equal([]string{"company-representative"}, st.CompletedPhases)
	s.Equal(models.Text("First Bank of Ohio"), st.State.FormData["bank_name"])
	s.Equal(models.Text("021000021"), st.State.FormData["routing_number"])
	s.Require().NotNil(st.State.LastSavedAt)
}

func (s *ServiceSuite) TestSubmitSectionValidationFailure() {
	answers := bankingAnswers()
	delete(answers, "bank_name")
	answers["routing_number"] = "abc"

	_, err := s.service.SubmitSection(s.ctx, models.RoleSponsor, "banking-information", answers)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	var verr *models.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Equal([]string{"bank_name", "routing_number"}, verr.Fields.Keys())

	view, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Empty(view.State.FormData)
}

func (s *ServiceSuite) TestSubmitSectionRemoteFailureLeavesDraft() {
	s.remote.EXPECT().
		SaveStep(gomock.Any(), models.RoleSponsor, 8, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "onboarding service is unreachable"))

	_, err := s.service.SubmitSection(s.ctx, models.RoleSponsor, "banking-information", bankingAnswers())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	view, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Empty(view.State.FormData)
	s.Nil(view.State.LastSavedAt)
	s.Empty(view.State.CompletedSections)
}

func (s *ServiceSuite) TestSubmitSectionRejectedEnvelopeLeavesDraft() {
	_, err := s.service.UpdateAnswers(s.ctx, models.RoleSponsor, map[string]any{"company_name": "Acme"})
	s.Require().NoError(err)
	before, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)

	s.remote.EXPECT().
		SaveStep(gomock.Any(), models.RoleSponsor, 8, gomock.Any()).
		Return(&models.StepResponse{
			Status:      false,
			Message:     "routing number invalid",
			Errors:      map[string][]string{"routing_number": {"invalid"}},
			CurrentStep: 9,
		}, nil)

	later := requestcontext.WithTime(s.ctx, time.Date(2026, 5, 4, 13, 0, 0, 0, time.UTC))
	_, err = s.service.SubmitSection(later, models.RoleSponsor, "banking-information", bankingAnswers())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	after, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Equal(before.State.FormData, after.State.FormData)
	s.Equal(before.State.LastSavedAt, after.State.LastSavedAt)
	s.Empty(after.State.CompletedSections)
	s.Equal(before.Position, after.Position)
}

func (s *ServiceSuite) TestSyncProgressRejectedEnvelope() {
	s.remote.EXPECT().
		FetchProgress(gomock.Any(), models.RoleSponsor).
		Return(&models.StepResponse{Status: false, Message: "profile locked", CurrentStep: 4}, nil)

	_, err := s.service.SyncProgress(s.ctx, models.RoleSponsor)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	view, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Equal(schema.Coordinate{Phase: 1, Section: 0}, view.Position)
}

func (s *ServiceSuite) TestSubmitUnknownSection() {
	_, err := s.service.SubmitSection(s.ctx, models.RoleSponsor, "missing", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSyncProgress() {
	s.remote.EXPECT().
		FetchProgress(gomock.Any(), models.RoleSponsor).
		Return(&models.StepResponse{
			Status:         true,
			CurrentStep:    4,
			CompletedSteps: []int{1, 2, 3},
			Data:           models.Payload{"legal_name": "Acme Capital LLC", "bank_name": "First Bank"},
		}, nil)

	view, err := s.service.SyncProgress(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Equal(schema.Coordinate{Phase: 1, Section: 3}, view.Position)
	s.Equal([]string{"company-overview", "investment-strategy", "track-record"}, view.State.CompletedSections)
	s.Equal(models.Text("Acme Capital LLC"), view.State.FormData["company_name"])
	s.Equal(models.Text("First Bank"), view.State.FormData["bank_name"])
	s.NotContains(view.State.FormData, "legal_name")
}

func (s *ServiceSuite) TestUploadDocument() {
	s.remote.EXPECT().
		UploadDocument(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, up models.UploadRequest) (*models.Document, error) {
			s.Equal("p-1", up.ProjectID)
			return &models.Document{ID: "d-7", Name: "deck.pdf", Category: "pitch", FileType: "pdf"}, nil
		})

	doc, err := s.service.UploadDocument(s.ctx, models.RoleSponsor, "pitch_deck", models.UploadRequest{
		ProjectID: "p-1",
		File:      strings.NewReader("%PDF-"),
		FileName:  "deck.pdf",
		Size:      5,
	})
	s.Require().NoError(err)
	s.Equal("d-7", doc.ID)

	view, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	file, ok := view.State.FormData["pitch_deck"].(models.File)
	s.Require().True(ok)
	s.Equal("d-7", file.Ref.ID)
	s.Equal(int64(5), file.Ref.Size)
}

func (s *ServiceSuite) TestUploadDocumentRejectedBeforeRemote() {
	tests := []struct {
		name  string
		field string
		up    models.UploadRequest
		code  dErrors.Code
	}{
		{"wrong type", "pitch_deck", models.UploadRequest{ProjectID: "p", FileName: "deck.exe", Size: 1}, dErrors.CodeValidation},
		{"too large", "operating_agreement", models.UploadRequest{ProjectID: "p", FileName: "oa.pdf", Size: 10485761}, dErrors.CodeValidation},
		{"not a file field", "company_name", models.UploadRequest{ProjectID: "p", FileName: "a.pdf"}, dErrors.CodeInvalidInput},
		{"unknown field", "nope", models.UploadRequest{ProjectID: "p", FileName: "a.pdf"}, dErrors.CodeNotFound},
		{"missing project", "pitch_deck", models.UploadRequest{FileName: "a.pdf"}, dErrors.CodeInvalidInput},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.UploadDocument(s.ctx, models.RoleSponsor, tt.field, tt.up)
			s.True(dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestDeleteDocument() {
	s.remote.EXPECT().
		UploadDocument(gomock.Any(), gomock.Any()).
		Return(&models.Document{ID: "d-7", Name: "deck.pdf", FileType: "pdf"}, nil)
	_, err := s.service.UploadDocument(s.ctx, models.RoleSponsor, "pitch_deck", models.UploadRequest{
		ProjectID: "p-1",
		File:      strings.NewReader("%PDF-"),
		FileName:  "deck.pdf",
		Size:      5,
	})
	s.Require().NoError(err)

	s.remote.EXPECT().DeleteDocument(gomock.Any(), "p-1", "d-7").Return(nil)
	s.Require().NoError(s.service.DeleteDocument(s.ctx, models.RoleSponsor, "p-1", "d-7"))

	view, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Empty(models.FileRefs(view.State.FormData["pitch_deck"]))

	err = s.service.DeleteDocument(s.ctx, models.RoleSponsor, "", "d-7")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestDeleteDocumentFailureKeepsReference() {
	s.remote.EXPECT().
		UploadDocument(gomock.Any(), gomock.Any()).
		Return(&models.Document{ID: "d-8", Name: "deck.pdf"}, nil)
	_, err := s.service.UploadDocument(s.ctx, models.RoleSponsor, "pitch_deck", models.UploadRequest{
		ProjectID: "p-1", File: strings.NewReader("x"), FileName: "deck.pdf", Size: 1,
	})
	s.Require().NoError(err)

	s.remote.EXPECT().DeleteDocument(gomock.Any(), "p-1", "d-8").
		Return(dErrors.New(dErrors.CodeUnavailable, "onboarding service is unreachable"))
	err = s.service.DeleteDocument(s.ctx, models.RoleSponsor, "p-1", "d-8")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	view, err := s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	refs := models.FileRefs(view.State.FormData["pitch_deck"])
	s.Require().Len(refs, 1)
	s.Equal("d-8", refs[0].ID)
}

func (s *ServiceSuite) TestResetAndClear() {
	_, err := s.service.UpdateAnswers(s.ctx, models.RoleSponsor, map[string]any{"company_name": "Acme"})
	s.Require().NoError(err)

	view, err := s.service.Reset(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Empty(view.State.FormData)
	s.Equal(identity, view.State.Identity)

	_, err = s.service.UpdateAnswers(s.ctx, models.RoleSponsor, map[string]any{"company_name": "Acme"})
	s.Require().NoError(err)
	s.Require().NoError(s.service.Clear(s.ctx, models.RoleSponsor))
	s.Equal(0, s.registry.Len())

	view, err = s.service.State(s.ctx, models.RoleSponsor)
	s.Require().NoError(err)
	s.Empty(view.State.FormData)
}
