package view

import (
	"context"
	"strings"
	"sync"

	"equipment-console/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Related collection names reported in Detail.Degraded
const (
	RelatedAffectation     = "affectation"
	RelatedOrgans          = "organes"
	RelatedCharacteristics = "caracteristiques"
)

type EquipmentReader interface {
	GetByID(ctx context.Context, id int64) (*model.Equipment, error)
}

type AffectationReader interface {
	GetByEquipment(ctx context.Context, equipmentID int64) (*model.Affectation, error)
}

type OrganReader interface {
	ListAttachedToEquipment(ctx context.Context, equipmentID int64) ([]model.EquipmentOrgan, error)
}

type CharacteristicReader interface {
	ListAttachedToEquipment(ctx context.Context, equipmentID int64) ([]model.EquipmentCharacteristic, error)
}

// Detail is one equipment with its related collections.
type Detail struct {
	Equipment       *model.Equipment                `json:"equipement"`
	Affectation     *model.Affectation              `json:"affectation"`
	Organs          []model.EquipmentOrgan          `json:"organes"`
	Characteristics []model.EquipmentCharacteristic `json:"caracteristiques"`
	StatusClass     string                          `json:"statusClass,omitempty"`
	Degraded        []string                        `json:"degraded,omitempty"`
}

// DetailController loads the equipment sheet. A failing related collection
// is shown empty; only a failing equipment fetch fails the load.
type DetailController struct {
	equipments      EquipmentReader
	affectations    AffectationReader
	organs          OrganReader
	characteristics CharacteristicReader
	logger          *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    *Detail
}

func NewDetailController(equipments EquipmentReader, affectations AffectationReader, organs OrganReader, characteristics CharacteristicReader, logger *zap.Logger) *DetailController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetailController{
		equipments:      equipments,
		affectations:    affectations,
		organs:          organs,
		characteristics: characteristics,
		logger:          logger.Named("detail"),
	}
}

// Current returns the last detail loaded, or nil.
func (c *DetailController) Current() *Detail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Load fetches the equipment and its related collections concurrently and
// returns once all of them settled. A newer Load cancels this one, which
// then returns ErrSuperseded.
func (c *DetailController) Load(ctx context.Context, id int64) (*Detail, error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	log := c.logger.With(zap.Int64("equipment_id", id))
	detail := &Detail{
		Organs:          []model.EquipmentOrgan{},
		Characteristics: []model.EquipmentCharacteristic{},
	}
	var degradedMu sync.Mutex
	degrade := func(name string, err error) {
		log.Warn("related collection unavailable", zap.String("collection", name), zap.Error(err))
		degradedMu.Lock()
		detail.Degraded = append(detail.Degraded, name)
		degradedMu.Unlock()
	}

	g, gctx := errgroup.WithContext(loadCtx)
	g.Go(func() error {
		eq, err := c.equipments.GetByID(gctx, id)
		if err != nil {
			return err
		}
		detail.Equipment = eq
		return nil
	})
	g.Go(func() error {
		a, err := c.affectations.GetByEquipment(gctx, id)
		if err != nil {
			degrade(RelatedAffectation, err)
			return nil
		}
		detail.Affectation = a
		return nil
	})
	g.Go(func() error {
		items, err := c.organs.ListAttachedToEquipment(gctx, id)
		if err != nil {
			degrade(RelatedOrgans, err)
			return nil
		}
		if items != nil {
			detail.Organs = items
		}
		return nil
	})
	g.Go(func() error {
		items, err := c.characteristics.ListAttachedToEquipment(gctx, id)
		if err != nil {
			degrade(RelatedCharacteristics, err)
			return nil
		}
		if items != nil {
			detail.Characteristics = items
		}
		return nil
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil, ErrSuperseded
	}
	c.cancel = nil
	if err != nil {
		log.Warn("failed to load equipment", zap.Error(err))
		return nil, err
	}
	detail.StatusClass = StatusClass(detail.Equipment.State)
	c.current = detail
	return detail, nil
}

// StatusClass maps an equipment state to its display class, or "".
func StatusClass(state string) string {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "operationnel", "en service":
		return "status-operational"
	case "en panne":
		return "status-panne"
	case "reforme", "réformé":
		return "status-reforme"
	case "pre_reforme":
		return "status-pre-reforme"
	default:
		return ""
	}
}
