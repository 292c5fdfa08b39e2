package gateway

import (
	"context"
	"net/url"

	"equipment-console/internal/model"
)

const equipmentPath = "/equipement"

// EquipmentClient maps the /equipement resource.
type EquipmentClient struct {
	client *Client
}

func NewEquipmentClient(client *Client) *EquipmentClient {
	return &EquipmentClient{client: client}
}

// List returns the equipment matching filter. Empty filter fields are not sent.
func (e *EquipmentClient) List(ctx context.Context, filter model.EquipmentFilter) ([]model.Equipment, error) {
	var items []model.Equipment
	if err := e.client.get(ctx, equipmentPath, filter.Values(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (e *EquipmentClient) GetByID(ctx context.Context, id int64) (*model.Equipment, error) {
	var item model.Equipment
	if err := e.client.get(ctx, idPath(equipmentPath, id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (e *EquipmentClient) GetByCode(ctx context.Context, code string) (*model.Equipment, error) {
	var item model.Equipment
	if err := e.client.get(ctx, equipmentPath+"/code/"+url.PathEscape(code), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create posts a new equipment and returns the server's representation.
func (e *EquipmentClient) Create(ctx context.Context, payload model.CreateEquipment) (*model.Equipment, error) {
	var item model.Equipment
	if err := e.client.post(ctx, equipmentPath, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces an equipment. A 2xx without a body yields the submitted
// payload under id.
func (e *EquipmentClient) Update(ctx context.Context, id int64, payload model.UpdateEquipment) (*model.Equipment, error) {
	var item model.Equipment
	decoded, err := e.client.putOptional(ctx, idPath(equipmentPath, id), payload, &item)
	if err != nil {
		return nil, err
	}
	if !decoded {
		item = payload.Equipment(id)
	}
	return &item, nil
}

// Delete removes an equipment. A missing id is reported as a TransportError.
func (e *EquipmentClient) Delete(ctx context.Context, id int64) error {
	return e.client.delete(ctx, idPath(equipmentPath, id))
}
