// Package service orchestrates the onboarding wizard: it resolves the caller's
// store, validates and transforms section answers, submits them to the
// backend and reconciles the wizard with the backend's view of progress.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"keystone/internal/onboarding/fieldmap"
	"keystone/internal/onboarding/metrics"
	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/transform"
	"keystone/internal/onboarding/wizard"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/requestcontext"
)

const tracerName = "keystone/internal/onboarding/service"

// Service is the onboarding use-case layer shared by the HTTP handler and
// the CLI.
type Service struct {
	registries wizard.Registries
	remote     Remote
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func New(registries wizard.Registries, remote Remote, opts ...Option) *Service {
	s := &Service{
		registries: registries,
		remote:     remote,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Schema returns the wizard definition for role.
func (s *Service) Schema(_ context.Context, role models.Role) (*schema.Schema, error) {
	reg, err := s.registry(role)
	if err != nil {
		return nil, err
	}
	return reg.Schema(), nil
}

// Phase resolves a phase by slug against the caller's answers. Unknown slugs
// return a PhaseNotFoundError carrying the landing position.
func (s *Service) Phase(ctx context.Context, role models.Role, slug string) (*PhaseView, error) {
	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	sch := reg.Schema()
	idx := sch.GetPhaseIndex(slug)
	if idx < 0 {
		notFound := &PhaseNotFoundError{Slug: slug, Redirect: sch.Landing(), RedirectSlug: sch.LandingSlug()}
		return nil, dErrors.Wrap(notFound, dErrors.CodeNotFound, notFound.Error())
	}
	view := newPhaseView(sch.Phases[idx], idx+1, st.State())
	return &view, nil
}

// State returns the caller's wizard state.
func (s *Service) State(ctx context.Context, role models.Role) (*StateView, error) {
	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	view := newStateView(reg.Schema(), st.State())
	return &view, nil
}

// UpdateAnswers merges a partial answer map into the caller's draft. Values
// are typed by the schema; unknown keys are kept verbatim.
func (s *Service) UpdateAnswers(ctx context.Context, role models.Role, raw map[string]any) (*StateView, error) {
	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "answers must not be empty")
	}
	answers := models.AnswersFromMap(raw, reg.Schema().FieldTypes())
	if err := st.UpdateFormData(ctx, answers); err != nil {
		return nil, err
	}
	view := newStateView(reg.Schema(), st.State())
	return &view, nil
}

// SetPosition moves the caller to (phase, section). Out-of-range values are
// stored and clamped when read.
func (s *Service) SetPosition(ctx context.Context, role models.Role, phase, section int) (*StateView, error) {
	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	if err := st.SetPosition(ctx, phase, section); err != nil {
		return nil, err
	}
	view := newStateView(reg.Schema(), st.State())
	return &view, nil
}

// CompleteSection marks a section complete without submitting it.
func (s *Service) CompleteSection(ctx context.Context, role models.Role, key string) (*StateView, error) {
	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	if _, _, ok := reg.Schema().Section(key); !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown section: "+key)
	}
	if err := st.MarkSectionCompleted(ctx, key); err != nil {
		return nil, err
	}
	s.metrics.IncrementSectionCompleted(string(role), key)
	view := newStateView(reg.Schema(), st.State())
	return &view, nil
}

// SubmitSection validates the section, submits its phase's answers to the
// backend and reconciles the wizard with the response. The draft is only
// updated after the backend accepted the submission.
func (s *Service) SubmitSection(ctx context.Context, role models.Role, key string, raw map[string]any) (_ *SubmitResult, err error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.SubmitSection", trace.WithAttributes(
		attribute.String("onboarding.role", string(role)),
		attribute.String("onboarding.section", key),
	))
	defer func() { endSpan(span, err) }()

	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	sch := reg.Schema()
	section, coord, ok := sch.Section(key)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown section: "+key)
	}
	phase, _ := sch.PhaseAt(coord.Phase)
	table, err := fieldmap.ByName(phase.Table)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "phase has no field mapping")
	}
	step, _ := sch.StepOf(key)
	lookup := sch.FieldTypes()

	current := st.State()
	submitted := models.AnswersFromMap(raw, lookup)
	merged := current.FormData.Merge(submitted)

	if fields := schema.Validate(section, merged); len(fields) > 0 {
		s.metrics.IncrementSubmission(string(role), metrics.OutcomeInvalid)
		verr := &models.ValidationError{Message: "section has invalid answers", Fields: fields}
		return nil, dErrors.Wrap(verr, dErrors.CodeValidation, verr.Message)
	}

	shaped := transform.ToAPIShape(merged.Only(phaseFieldKeys(phase)), table, current.Identity)
	if len(shaped.Warnings) > 0 {
		s.metrics.AddTransformWarnings(table.Name(), len(shaped.Warnings))
		for _, w := range shaped.Warnings {
			s.logger.WarnContext(ctx, "submission has empty critical field",
				"role", role,
				"section", key,
				"path", w.Path,
			)
		}
	}

	start := time.Now()
	resp, err := s.remote.SaveStep(ctx, role, step, shaped.Payload)
	s.metrics.ObserveRemoteLatency("save_step", time.Since(start))
	if err == nil {
		err = resp.Failure()
	}
	if err != nil {
		outcome := metrics.OutcomeRemoteFailed
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.IncrementSubmission(string(role), outcome)
		return nil, err
	}

	if err := s.reconcile(ctx, st, sch, phase, table, submitted, resp); err != nil {
		s.metrics.IncrementSubmission(string(role), metrics.OutcomeReconcileError)
		return nil, err
	}
	if err := st.MarkSectionCompleted(ctx, key); err != nil {
		return nil, err
	}
	if resp.CurrentStep > 0 {
		res, err := st.SetProgressFromAPI(ctx, resp.CurrentStep, resp.CompletedSteps)
		if err != nil {
			return nil, err
		}
		s.metrics.IncrementProgressSync(string(role), res.InSchema)
	}
	s.metrics.IncrementSubmission(string(role), metrics.OutcomeSaved)
	s.metrics.IncrementSectionCompleted(string(role), key)

	s.logger.InfoContext(ctx, "onboarding section submitted",
		"role", role,
		"section", key,
		"step", step,
		"draft", resp.IsDraft,
	)
	return &SubmitResult{
		Section:  key,
		Congrats: section.Congrats,
		Warnings: shaped.Warnings,
		IsDraft:  resp.IsDraft,
		State:    newStateView(sch, st.State()),
	}, nil
}

// reconcile writes the submitted answers, then the phase fields the backend
// echoed back, into the draft.
func (s *Service) reconcile(ctx context.Context, st *wizard.Store, sch *schema.Schema, phase schema.Phase, table *fieldmap.Table, submitted models.AnswerSet, resp *models.StepResponse) error {
	if err := st.UpdateFormData(ctx, submitted); err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		return nil
	}
	echoed := transform.FromAPIShape(resp.Data, table).Resolve(sch.FieldTypes())
	return st.UpdateFromAPIResponse(ctx, echoed.Only(phaseFieldKeys(phase)))
}

// SyncProgress pulls the backend's progress for the caller and moves the
// wizard there. Echoed data is decoded per phase table and limited to that
// phase's fields.
func (s *Service) SyncProgress(ctx context.Context, role models.Role) (_ *StateView, err error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.SyncProgress", trace.WithAttributes(
		attribute.String("onboarding.role", string(role)),
	))
	defer func() { endSpan(span, err) }()

	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := s.remote.FetchProgress(ctx, role)
	s.metrics.ObserveRemoteLatency("fetch_progress", time.Since(start))
	if err == nil {
		err = resp.Failure()
	}
	if err != nil {
		return nil, err
	}

	sch := reg.Schema()
	if len(resp.Data) > 0 {
		answers := models.AnswerSet{}
		for _, p := range sch.Phases {
			table, err := fieldmap.ByName(p.Table)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "phase has no field mapping")
			}
			decoded := transform.FromAPIShape(resp.Data, table).Resolve(sch.FieldTypes())
			answers = answers.Merge(decoded.Only(phaseFieldKeys(p)))
		}
		if err := st.UpdateFromAPIResponse(ctx, answers); err != nil {
			return nil, err
		}
	}
	res, err := st.SetProgressFromAPI(ctx, resp.CurrentStep, resp.CompletedSteps)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementProgressSync(string(role), res.InSchema)
	view := newStateView(sch, st.State())
	return &view, nil
}

// Reset clears the caller's answers and position, keeping the identity.
func (s *Service) Reset(ctx context.Context, role models.Role) (*StateView, error) {
	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	if err := st.ResetOnboarding(ctx); err != nil {
		return nil, err
	}
	view := newStateView(reg.Schema(), st.State())
	return &view, nil
}

// Clear deletes the caller's durable state and drops the cached store, as on
// logout.
func (s *Service) Clear(ctx context.Context, role models.Role) error {
	reg, err := s.registry(role)
	if err != nil {
		return err
	}
	return reg.Clear(ctx, requestcontext.Identity(ctx))
}

// UploadDocument checks the file against the target field's rules, uploads
// it and records the reference as the field's answer.
func (s *Service) UploadDocument(ctx context.Context, role models.Role, fieldKey string, up models.UploadRequest) (_ *models.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.UploadDocument", trace.WithAttributes(
		attribute.String("onboarding.role", string(role)),
		attribute.String("onboarding.field", fieldKey),
	))
	defer func() { endSpan(span, err) }()

	reg, st, err := s.store(ctx, role)
	if err != nil {
		return nil, err
	}
	field, ok := reg.Schema().Field(fieldKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown field: "+fieldKey)
	}
	if !field.Type.IsFile() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "field does not accept files: "+fieldKey)
	}
	if up.ProjectID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "project id is required")
	}
	if msgs := field.CheckFile(up.FileName, up.Size); len(msgs) > 0 {
		verr := &models.ValidationError{Message: "file was rejected", Fields: models.FieldErrors{fieldKey: msgs}}
		return nil, dErrors.Wrap(verr, dErrors.CodeValidation, verr.Message)
	}
	if existing := models.FileRefs(st.State().FormData[fieldKey]); field.Type == models.FieldMultiFile &&
		field.Validation.MaxFiles > 0 && len(existing) >= field.Validation.MaxFiles {
		verr := &models.ValidationError{Message: "file was rejected", Fields: models.FieldErrors{}}
		verr.Fields.Add(fieldKey, "no more files can be attached")
		return nil, dErrors.Wrap(verr, dErrors.CodeValidation, verr.Message)
	}

	start := time.Now()
	doc, err := s.remote.UploadDocument(ctx, up)
	s.metrics.ObserveRemoteLatency("upload_document", time.Since(start))
	if err != nil {
		return nil, err
	}

	ref := models.FileRef{ID: doc.ID, Name: doc.Name, Size: up.Size, MimeType: doc.FileType}
	if ref.Name == "" {
		ref.Name = up.FileName
	}
	var value models.Value = models.File{Ref: &ref}
	if field.Type == models.FieldMultiFile {
		value = append(models.Files(models.FileRefs(st.State().FormData[fieldKey])), ref)
	}
	if err := st.UpdateFormData(ctx, models.AnswerSet{fieldKey: value}); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a project document from the backend and drops its
// reference from the caller's answers.
func (s *Service) DeleteDocument(ctx context.Context, role models.Role, projectID, documentID string) error {
	if _, err := s.registry(role); err != nil {
		return err
	}
	if projectID == "" || documentID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "project id and document id are required")
	}
	start := time.Now()
	err := s.remote.DeleteDocument(ctx, projectID, documentID)
	s.metrics.ObserveRemoteLatency("delete_document", time.Since(start))
	if err != nil {
		return err
	}

	_, st, err := s.store(ctx, role)
	if err != nil {
		return err
	}
	changed := models.AnswerSet{}
	for key, v := range st.State().FormData {
		if next, ok := models.WithoutFile(v, documentID); ok {
			changed[key] = next
		}
	}
	if len(changed) == 0 {
		return nil
	}
	return st.UpdateFormData(ctx, changed)
}

func (s *Service) registry(role models.Role) (*wizard.Registry, error) {
	reg, ok := s.registries.Get(role)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown role: "+string(role))
	}
	return reg, nil
}

func (s *Service) store(ctx context.Context, role models.Role) (*wizard.Registry, *wizard.Store, error) {
	reg, err := s.registry(role)
	if err != nil {
		return nil, nil, err
	}
	st, err := reg.Get(ctx, requestcontext.Identity(ctx))
	if err != nil {
		return nil, nil, err
	}
	return reg, st, nil
}

func phaseFieldKeys(p schema.Phase) []string {
	var keys []string
	for _, sec := range p.Sections {
		keys = append(keys, sec.FieldKeys()...)
	}
	return keys
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		var de *dErrors.Error
		if errors.As(err, &de) {
			span.SetAttributes(attribute.String("error.code", string(de.Code)))
		}
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
