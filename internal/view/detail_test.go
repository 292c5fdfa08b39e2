package view

import (
	"context"
	"errors"
	"testing"

	"equipment-console/internal/model"
	apperrors "equipment-console/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEquipments struct {
	fn func(ctx context.Context, id int64) (*model.Equipment, error)
}

func (f fakeEquipments) GetByID(ctx context.Context, id int64) (*model.Equipment, error) {
	return f.fn(ctx, id)
}

type fakeAffectations struct {
	fn func(ctx context.Context, id int64) (*model.Affectation, error)
}

func (f fakeAffectations) GetByEquipment(ctx context.Context, id int64) (*model.Affectation, error) {
	return f.fn(ctx, id)
}

type fakeOrgans struct {
	fn func(ctx context.Context, id int64) ([]model.EquipmentOrgan, error)
}

func (f fakeOrgans) ListAttachedToEquipment(ctx context.Context, id int64) ([]model.EquipmentOrgan, error) {
	return f.fn(ctx, id)
}

type fakeCharacteristics struct {
	fn func(ctx context.Context, id int64) ([]model.EquipmentCharacteristic, error)
}

func (f fakeCharacteristics) ListAttachedToEquipment(ctx context.Context, id int64) ([]model.EquipmentCharacteristic, error) {
	return f.fn(ctx, id)
}

func okDetailController() (*DetailController, *fakeEquipments, *fakeAffectations, *fakeOrgans, *fakeCharacteristics) {
	eq := &fakeEquipments{fn: func(ctx context.Context, id int64) (*model.Equipment, error) {
		return &model.Equipment{ID: id, Code: "EQ-42", State: "En panne"}, nil
	}}
	af := &fakeAffectations{fn: func(ctx context.Context, id int64) (*model.Affectation, error) {
		return &model.Affectation{EquipmentID: id, UnitID: 5}, nil
	}}
	org := &fakeOrgans{fn: func(ctx context.Context, id int64) ([]model.EquipmentOrgan, error) {
		return []model.EquipmentOrgan{{OrganID: 1, SerialNumber: "SN"}}, nil
	}}
	ch := &fakeCharacteristics{fn: func(ctx context.Context, id int64) ([]model.EquipmentCharacteristic, error) {
		return []model.EquipmentCharacteristic{{CharacteristicID: 2, Value: "220V"}}, nil
	}}
	return NewDetailController(eq, af, org, ch, nil), eq, af, org, ch
}

func TestDetailController_LoadAll(t *testing.T) {
	c, _, _, _, _ := okDetailController()

	d, err := c.Load(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), d.Equipment.ID)
	require.NotNil(t, d.Affectation)
	assert.Len(t, d.Organs, 1)
	assert.Len(t, d.Characteristics, 1)
	assert.Empty(t, d.Degraded)
	assert.Equal(t, "status-panne", d.StatusClass)
	assert.Same(t, d, c.Current())
}

func TestDetailController_ScenarioD_OrgansFailDegrade(t *testing.T) {
	c, _, _, org, _ := okDetailController()
	org.fn = func(ctx context.Context, id int64) ([]model.EquipmentOrgan, error) {
		return nil, apperrors.NewTransportError("GET", "/OrganeEquipement/equipement/42", 500, "", nil)
	}

	d, err := c.Load(context.Background(), 42)

	require.NoError(t, err)
	require.NotNil(t, d.Equipment)
	assert.NotNil(t, d.Organs)
	assert.Empty(t, d.Organs)
	assert.Len(t, d.Characteristics, 1)
	assert.Equal(t, []string{RelatedOrgans}, d.Degraded)
}

func TestDetailController_AllRelatedFail(t *testing.T) {
	c, _, af, org, ch := okDetailController()
	boom := errors.New("boom")
	af.fn = func(ctx context.Context, id int64) (*model.Affectation, error) { return nil, boom }
	org.fn = func(ctx context.Context, id int64) ([]model.EquipmentOrgan, error) { return nil, boom }
	ch.fn = func(ctx context.Context, id int64) ([]model.EquipmentCharacteristic, error) { return nil, boom }

	d, err := c.Load(context.Background(), 42)

	require.NoError(t, err)
	assert.Nil(t, d.Affectation)
	assert.Empty(t, d.Organs)
	assert.Empty(t, d.Characteristics)
	assert.ElementsMatch(t, []string{RelatedAffectation, RelatedOrgans, RelatedCharacteristics}, d.Degraded)
}

func TestDetailController_EquipmentFailureFailsLoad(t *testing.T) {
	c, eq, _, _, _ := okDetailController()
	notFound := apperrors.NewTransportError("GET", "/equipement/42", 404, "not found", nil)
	eq.fn = func(ctx context.Context, id int64) (*model.Equipment, error) { return nil, notFound }

	d, err := c.Load(context.Background(), 42)

	assert.Nil(t, d)
	tErr, ok := apperrors.AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, 404, tErr.StatusCode)
	assert.Nil(t, c.Current())
}

func TestDetailController_NullCollectionsBecomeEmpty(t *testing.T) {
	c, _, af, org, ch := okDetailController()
	af.fn = func(ctx context.Context, id int64) (*model.Affectation, error) { return nil, nil }
	org.fn = func(ctx context.Context, id int64) ([]model.EquipmentOrgan, error) { return nil, nil }
	ch.fn = func(ctx context.Context, id int64) ([]model.EquipmentCharacteristic, error) { return nil, nil }

	d, err := c.Load(context.Background(), 42)

	require.NoError(t, err)
	assert.NotNil(t, d.Organs)
	assert.NotNil(t, d.Characteristics)
	assert.Empty(t, d.Degraded)
}

func TestDetailController_SupersededLoad(t *testing.T) {
	c, eq, _, _, _ := okDetailController()
	started := make(chan struct{})
	eq.fn = func(ctx context.Context, id int64) (*model.Equipment, error) {
		if id == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &model.Equipment{ID: id}, nil
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), 1)
		errCh <- err
	}()
	<-started

	d, err := c.Load(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Equipment.ID)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	assert.Equal(t, int64(2), c.Current().Equipment.ID)
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"operationnel", "status-operational"},
		{"En Service", "status-operational"},
		{"En panne", "status-panne"},
		{"reforme", "status-reforme"},
		{"Réformé", "status-reforme"},
		{"pre_reforme", "status-pre-reforme"},
		{"En stock", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusClass(tt.state))
		})
	}
}
