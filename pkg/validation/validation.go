package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"equipment-console/internal/model"
	apperrors "equipment-console/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// DefaultStates is used when no state list is configured.
var DefaultStates = []string{"En Service", "En panne", "En stock", "Réformé", "Prêt"}

// Validation messages shown to the console user
const (
	MsgRequiredFields = "all required fields must be filled in"
	MsgInvalidState   = "state must be one of: %s"
	MsgInvalidField   = "some fields are invalid"
)

var requiredTags = map[string]bool{"required": true, "notblank": true}

// StateSet is the ordered set of equipment states accepted by the backend.
type StateSet struct {
	values []string
	index  map[string]struct{}
}

// NewStateSet trims and deduplicates states, keeping their order.
func NewStateSet(states []string) StateSet {
	set := StateSet{index: make(map[string]struct{})}
	for _, s := range states {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := set.index[s]; dup {
			continue
		}
		set.index[s] = struct{}{}
		set.values = append(set.values, s)
	}
	return set
}

func (s StateSet) Contains(state string) bool {
	_, ok := s.index[state]
	return ok
}

func (s StateSet) Values() []string {
	return append([]string(nil), s.values...)
}

// DraftValidator checks an equipment draft before anything is sent.
type DraftValidator struct {
	validate *validator.Validate
	states   StateSet
}

// NewDraftValidator builds a validator bound to the given states.
// An empty list falls back to DefaultStates.
func NewDraftValidator(states []string) (*DraftValidator, error) {
	set := NewStateSet(states)
	if len(set.values) == 0 {
		set = NewStateSet(DefaultStates)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", isNotBlank); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("equipment_state", func(fl validator.FieldLevel) bool {
		return set.Contains(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	return &DraftValidator{validate: v, states: set}, nil
}

// States returns the accepted states in display order.
func (v *DraftValidator) States() []string {
	return v.states.Values()
}

// Validate returns nil or a VALIDATION_ERROR AppError carrying a single
// user-facing message and one detail per offending field.
// Missing required fields take precedence over an invalid state.
func (v *DraftValidator) Validate(draft *model.EquipmentDraft) error {
	err := v.validate.Struct(draft)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.InternalError("draft validation failed", err)
	}

	details := make(map[string]string, len(fieldErrs))
	var missing []string
	stateInvalid := false
	for _, fe := range fieldErrs {
		switch {
		case requiredTags[fe.Tag()]:
			missing = append(missing, fe.Field())
			details[fe.Field()] = "required"
		case fe.Tag() == "equipment_state":
			stateInvalid = true
			details[fe.Field()] = "not an accepted state"
		default:
			details[fe.Field()] = describe(fe)
		}
	}

	var message string
	switch {
	case len(missing) > 0:
		sort.Strings(missing)
		message = fmt.Sprintf("%s: %s", MsgRequiredFields, strings.Join(missing, ", "))
	case stateInvalid:
		message = fmt.Sprintf(MsgInvalidState, strings.Join(v.states.values, ", "))
	default:
		message = MsgInvalidField
	}

	return apperrors.ValidationErrorWithDetails(message, details)
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "invalid value"
}

// ParseID parses a positive numeric identifier from a path or query value.
func ParseID(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", raw)
	}
	return id, nil
}
