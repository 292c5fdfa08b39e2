package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"equipment-console/internal/model"
	apperrors "equipment-console/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadySubmitted is returned when a Submission is run twice.
var ErrAlreadySubmitted = errors.New("submission already run")

// User-facing messages, one per step
const (
	msgCreated                = "equipment created"
	msgUpdated                = "equipment updated"
	msgCreateFailed           = "failed to create the equipment"
	msgUpdateFailed           = "failed to update the equipment"
	msgCharacteristicsFailed  = "equipment saved but its characteristics could not be attached"
	msgOrgansFailed           = "equipment saved but its organs could not be attached"
	msgAssignmentFailed       = "equipment saved but the unit assignment could not be created"
	msgCharacteristicsApplied = "characteristics attached"
	msgOrgansApplied          = "organs attached"
	msgAssignmentApplied      = "unit assignment created"
)

type EquipmentGateway interface {
	Create(ctx context.Context, payload model.CreateEquipment) (*model.Equipment, error)
	Update(ctx context.Context, id int64, payload model.UpdateEquipment) (*model.Equipment, error)
}

type CharacteristicGateway interface {
	ListCatalogForTypeAndBrand(ctx context.Context, typeID, brandID int64) ([]model.Characteristic, error)
	ListCatalog(ctx context.Context, search, sortBy string, ascending bool) ([]model.Characteristic, error)
	BulkAttach(ctx context.Context, equipmentID int64, items []model.CharacteristicValue) error
}

type OrganGateway interface {
	ListCatalogForTypeAndBrand(ctx context.Context, typeID, brandID int64) ([]model.Organ, error)
	ListCatalog(ctx context.Context) ([]model.Organ, error)
	BulkAttach(ctx context.Context, equipmentID int64, items []model.OrganSerial) error
}

type AssignmentGateway interface {
	CreateAssignment(ctx context.Context, req model.Affectation) error
}

// Validator rejects drafts before any network call.
type Validator interface {
	Validate(draft *model.EquipmentDraft) error
}

// Refresher reloads the equipment list of the session bound to ctx once a
// record was saved.
type Refresher interface {
	Reload(ctx context.Context) error
}

// Recorder persists finished submissions.
type Recorder interface {
	Record(ctx context.Context, outcome *Outcome) error
}

// Publisher forwards the notices of a finished submission.
type Publisher interface {
	Publish(ctx context.Context, outcome *Outcome)
}

// Dependencies wires an Orchestrator. Refresher, Recorder, Publisher and
// Logger are optional.
type Dependencies struct {
	Equipments      EquipmentGateway
	Characteristics CharacteristicGateway
	Organs          OrganGateway
	Assignments     AssignmentGateway
	Validator       Validator
	Refresher       Refresher
	Recorder        Recorder
	Publisher       Publisher
	Logger          *zap.Logger
}

// Orchestrator runs equipment submissions: validate, save the equipment,
// then attach characteristics, organs and the unit assignment.
type Orchestrator struct {
	deps   Dependencies
	logger *zap.Logger
}

func New(deps Dependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, logger: logger.Named("workflow")}
}

// Submission is a single-use run of the pipeline for one draft.
type Submission struct {
	orchestrator *Orchestrator
	draft        model.EquipmentDraft
	started      atomic.Bool
}

// NewSubmission prepares a run for draft. Resubmitting the same form
// requires a new Submission.
func (o *Orchestrator) NewSubmission(draft model.EquipmentDraft) *Submission {
	return &Submission{orchestrator: o, draft: draft}
}

// Submit is NewSubmission(draft).Run(ctx).
func (o *Orchestrator) Submit(ctx context.Context, draft model.EquipmentDraft) (*Outcome, error) {
	return o.NewSubmission(draft).Run(ctx)
}

// step is one dependent call made after the equipment id is known.
type step struct {
	name        StepName
	stage       Stage
	failMessage string
	okMessage   string
	run         func(ctx context.Context, equipmentID int64) (int, error)
}

// Run executes the pipeline. The returned error is:
//   - a VALIDATION_ERROR AppError when the draft is rejected, before any call;
//   - the gateway error, unchanged, when saving the equipment fails;
//   - a *errors.PartialWorkflowFailure when the equipment was saved but a
//     dependent step failed. Dependent steps run independently of each other.
//
// The outcome is returned in every case except ErrAlreadySubmitted.
func (s *Submission) Run(ctx context.Context) (*Outcome, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubmitted
	}

	o := s.orchestrator
	draft := s.draft
	out := &Outcome{
		RunID:     uuid.New(),
		Mode:      ModeCreate,
		Stage:     StagePending,
		StartedAt: time.Now().UTC(),
	}
	if draft.IsEdit() {
		out.Mode = ModeUpdate
	}
	log := o.logger.With(zap.String("run_id", out.RunID.String()), zap.String("mode", string(out.Mode)))

	if err := o.deps.Validator.Validate(&draft); err != nil {
		out.Stage = StageAborted
		out.Status = StatusRejected
		msg := err.Error()
		if appErr, ok := apperrors.AsAppError(err); ok {
			msg = appErr.Message
		}
		out.notify(NoticeError, StepEquipment, msg)
		log.Info("draft rejected", zap.String("reason", msg))
		o.finish(ctx, out)
		return out, err
	}
	out.Stage = StageValidated

	saved, err := o.save(ctx, draft)
	if err != nil {
		failMsg := msgCreateFailed
		if draft.IsEdit() {
			failMsg = msgUpdateFailed
		}
		out.Stage = StageAborted
		out.Status = StatusFailed
		out.addStep(StepResult{Step: StepEquipment, Status: StepFailed, Message: failMsg, Err: err})
		out.notify(NoticeError, StepEquipment, fmt.Sprintf("%s: %v", failMsg, err))
		log.Warn("equipment save failed", zap.Error(err))
		o.finish(ctx, out)
		return out, err
	}

	out.Equipment = saved
	out.Stage = StageCreated
	okMsg := msgCreated
	if draft.IsEdit() {
		okMsg = msgUpdated
	}
	out.addStep(StepResult{Step: StepEquipment, Status: StepSucceeded, Message: okMsg, Count: 1})
	log = log.With(zap.Int64("equipment_id", saved.ID))

	var failures []apperrors.StepFailure
	for _, st := range o.dependentSteps(draft) {
		out.Stage = st.stage
		n, err := st.run(ctx, saved.ID)
		switch {
		case err != nil:
			out.addStep(StepResult{Step: st.name, Status: StepFailed, Message: st.failMessage, Count: n, Err: err})
			out.notify(NoticeWarning, st.name, st.failMessage)
			failures = append(failures, apperrors.StepFailure{Step: string(st.name), Message: st.failMessage, Cause: err})
			log.Warn("dependent step failed", zap.String("step", string(st.name)), zap.Error(err))
		case n == 0:
			out.addStep(StepResult{Step: st.name, Status: StepSkipped})
		default:
			out.addStep(StepResult{Step: st.name, Status: StepSucceeded, Message: st.okMessage, Count: n})
		}
	}
	out.Stage = StageDone

	if o.deps.Refresher != nil {
		if err := o.deps.Refresher.Reload(ctx); err != nil {
			log.Warn("list refresh failed", zap.Error(err))
		} else {
			out.Refreshed = true
		}
	}

	if len(failures) > 0 {
		out.Status = StatusPartial
		o.finish(ctx, out)
		return out, &apperrors.PartialWorkflowFailure{EquipmentID: saved.ID, Failures: failures}
	}

	out.Status = StatusSucceeded
	out.notify(NoticeInfo, StepEquipment, okMsg)
	log.Info("submission completed")
	o.finish(ctx, out)
	return out, nil
}

func (o *Orchestrator) save(ctx context.Context, draft model.EquipmentDraft) (*model.Equipment, error) {
	if draft.IsEdit() {
		return o.deps.Equipments.Update(ctx, draft.EquipmentID, draft.Payload())
	}
	return o.deps.Equipments.Create(ctx, draft.Payload())
}

// dependentSteps returns the fixed-order steps that need the equipment id.
// A step with nothing to send reports 0 and is marked skipped.
func (o *Orchestrator) dependentSteps(draft model.EquipmentDraft) []step {
	return []step{
		{
			name:        StepCharacteristics,
			stage:       StageAttachingCharacteristics,
			failMessage: msgCharacteristicsFailed,
			okMessage:   msgCharacteristicsApplied,
			run: func(ctx context.Context, id int64) (int, error) {
				items := draft.SelectedCharacteristics()
				if len(items) == 0 {
					return 0, nil
				}
				return len(items), o.deps.Characteristics.BulkAttach(ctx, id, items)
			},
		},
		{
			name:        StepOrgans,
			stage:       StageAttachingOrgans,
			failMessage: msgOrgansFailed,
			okMessage:   msgOrgansApplied,
			run: func(ctx context.Context, id int64) (int, error) {
				items := draft.SelectedOrgans()
				if len(items) == 0 {
					return 0, nil
				}
				return len(items), o.deps.Organs.BulkAttach(ctx, id, items)
			},
		},
		{
			name:        StepAssignment,
			stage:       StageAttachingAssignment,
			failMessage: msgAssignmentFailed,
			okMessage:   msgAssignmentApplied,
			run: func(ctx context.Context, id int64) (int, error) {
				req, ok := draft.AssignmentFor(id)
				if !ok {
					return 0, nil
				}
				return 1, o.deps.Assignments.CreateAssignment(ctx, req)
			},
		},
	}
}

// finish stamps the outcome and hands it to the journal and the publisher.
// Neither can change the result of the submission.
func (o *Orchestrator) finish(ctx context.Context, out *Outcome) {
	out.FinishedAt = time.Now().UTC()
	if o.deps.Recorder != nil {
		if err := o.deps.Recorder.Record(context.WithoutCancel(ctx), out); err != nil {
			o.logger.Warn("failed to record submission", zap.String("run_id", out.RunID.String()), zap.Error(err))
		}
	}
	if o.deps.Publisher != nil {
		o.deps.Publisher.Publish(context.WithoutCancel(ctx), out)
	}
}

// AttachableOptions lists what can be attached to an equipment of a given
// type and brand.
type AttachableOptions struct {
	Characteristics         []model.Characteristic `json:"caracteristiques"`
	CharacteristicsFallback bool                   `json:"caracteristiques_fallback"`
	Organs                  []model.Organ          `json:"organes"`
	OrgansFallback          bool                   `json:"organes_fallback"`
}

// AttachableOptions returns the characteristics and organs cataloged for
// (typeID, brandID). When a pair has nothing cataloged, the whole catalog is
// offered instead and the matching Fallback flag is set.
func (o *Orchestrator) AttachableOptions(ctx context.Context, typeID, brandID int64) (*AttachableOptions, error) {
	var opts AttachableOptions
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := o.deps.Characteristics.ListCatalogForTypeAndBrand(gctx, typeID, brandID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			opts.CharacteristicsFallback = true
			items, err = o.deps.Characteristics.ListCatalog(gctx, "", "", true)
			if err != nil {
				return err
			}
		}
		opts.Characteristics = items
		return nil
	})

	g.Go(func() error {
		items, err := o.deps.Organs.ListCatalogForTypeAndBrand(gctx, typeID, brandID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			opts.OrgansFallback = true
			items, err = o.deps.Organs.ListCatalog(gctx)
			if err != nil {
				return err
			}
		}
		opts.Organs = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}
