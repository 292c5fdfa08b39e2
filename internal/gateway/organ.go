package gateway

import (
	"context"
	"fmt"

	"equipment-console/internal/model"
)

const (
	organPath          = "/Organe"
	equipmentOrganPath = "/OrganeEquipement"
)

// OrganClient maps the organ catalog and organs mounted on equipment.
type OrganClient struct {
	client *Client
}

func NewOrganClient(client *Client) *OrganClient {
	return &OrganClient{client: client}
}

func (o *OrganClient) ListCatalogForTypeAndBrand(ctx context.Context, typeID, brandID int64) ([]model.Organ, error) {
	var items []model.Organ
	path := fmt.Sprintf("%s/type/%d/marque/%d", organPath, typeID, brandID)
	if err := o.client.get(ctx, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (o *OrganClient) ListCatalog(ctx context.Context) ([]model.Organ, error) {
	var items []model.Organ
	if err := o.client.get(ctx, organPath, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (o *OrganClient) ListAttachedToEquipment(ctx context.Context, equipmentID int64) ([]model.EquipmentOrgan, error) {
	var items []model.EquipmentOrgan
	if err := o.client.get(ctx, fmt.Sprintf("%s/equipement/%d", equipmentOrganPath, equipmentID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// BulkAttach mounts every organ on the equipment in a single call.
func (o *OrganClient) BulkAttach(ctx context.Context, equipmentID int64, items []model.OrganSerial) error {
	req := model.OrganAttachRequest{EquipmentID: equipmentID, Organs: items}
	return o.client.post(ctx, equipmentOrganPath, req, nil)
}
