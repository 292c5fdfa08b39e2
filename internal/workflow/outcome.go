package workflow

import (
	"time"

	"equipment-console/internal/model"

	"github.com/google/uuid"
)

// Stage is the position of a submission in the pipeline.
type Stage string

const (
	StagePending                  Stage = "pending"
	StageValidated                Stage = "validated"
	StageCreated                  Stage = "created"
	StageAttachingCharacteristics Stage = "attaching_characteristics"
	StageAttachingOrgans          Stage = "attaching_organs"
	StageAttachingAssignment      Stage = "attaching_assignment"
	StageDone                     Stage = "done"
	StageAborted                  Stage = "aborted"
)

// Mode tells whether a submission creates or updates the equipment.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Status summarizes a finished submission.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusRejected  Status = "rejected"
)

type StepName string

const (
	StepEquipment       StepName = "equipment"
	StepCharacteristics StepName = "characteristics"
	StepOrgans          StepName = "organs"
	StepAssignment      StepName = "assignment"
)

type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult is the result of one pipeline step.
type StepResult struct {
	Step    StepName   `json:"step"`
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	Count   int        `json:"count,omitempty"`
	Err     error      `json:"-"`
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message for the console user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Step    StepName    `json:"step,omitempty"`
	Message string      `json:"message"`
}

// Outcome is everything a submission produced.
type Outcome struct {
	RunID      uuid.UUID        `json:"run_id"`
	Mode       Mode             `json:"mode"`
	Stage      Stage            `json:"stage"`
	Status     Status           `json:"status"`
	Equipment  *model.Equipment `json:"equipment,omitempty"`
	Steps      []StepResult     `json:"steps"`
	Notices    []Notice         `json:"notices"`
	Refreshed  bool             `json:"refreshed"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// EquipmentID returns the id of the saved equipment, or 0.
func (o *Outcome) EquipmentID() int64 {
	if o.Equipment == nil {
		return 0
	}
	return o.Equipment.ID
}

// CloseForm reports whether the console should close the form.
func (o *Outcome) CloseForm() bool {
	return o.Status == StatusSucceeded
}

// FailedSteps lists the steps that failed.
func (o *Outcome) FailedSteps() []StepName {
	var failed []StepName
	for _, s := range o.Steps {
		if s.Status == StepFailed {
			failed = append(failed, s.Step)
		}
	}
	return failed
}

func (o *Outcome) addStep(r StepResult) {
	o.Steps = append(o.Steps, r)
}

func (o *Outcome) notify(level NoticeLevel, step StepName, message string) {
	o.Notices = append(o.Notices, Notice{Level: level, Step: step, Message: message})
}
