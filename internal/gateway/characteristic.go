package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"equipment-console/internal/model"
)

const (
	characteristicPath          = "/Caracteristique"
	equipmentCharacteristicPath = "/CaracteristiqueEquipement"
)

// CharacteristicClient maps the characteristic catalog and its attachment to equipment.
type CharacteristicClient struct {
	client *Client
}

func NewCharacteristicClient(client *Client) *CharacteristicClient {
	return &CharacteristicClient{client: client}
}

// ListCatalogForTypeAndBrand returns the characteristics cataloged for a (type, brand) pair.
func (c *CharacteristicClient) ListCatalogForTypeAndBrand(ctx context.Context, typeID, brandID int64) ([]model.Characteristic, error) {
	var items []model.Characteristic
	path := fmt.Sprintf("%s/type/%d/marque/%d", characteristicPath, typeID, brandID)
	if err := c.client.get(ctx, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListCatalog returns the whole catalog. sortBy defaults to id_caracteristique.
func (c *CharacteristicClient) ListCatalog(ctx context.Context, search, sortBy string, ascending bool) ([]model.Characteristic, error) {
	if sortBy == "" {
		sortBy = "id_caracteristique"
	}
	query := url.Values{}
	if search != "" {
		query.Set("searchTerm", search)
	}
	query.Set("sortBy", sortBy)
	query.Set("ascending", strconv.FormatBool(ascending))

	var items []model.Characteristic
	if err := c.client.get(ctx, characteristicPath, query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListAttachedToEquipment returns the characteristics of one equipment with their values.
func (c *CharacteristicClient) ListAttachedToEquipment(ctx context.Context, equipmentID int64) ([]model.EquipmentCharacteristic, error) {
	var items []model.EquipmentCharacteristic
	query := url.Values{"showValue": []string{"true"}}
	if err := c.client.get(ctx, fmt.Sprintf("%s/equipement/%d", equipmentCharacteristicPath, equipmentID), query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// BulkAttach attaches every item to the equipment in a single call.
func (c *CharacteristicClient) BulkAttach(ctx context.Context, equipmentID int64, items []model.CharacteristicValue) error {
	req := model.BulkCharacteristicRequest{EquipmentID: equipmentID, Characteristics: items}
	return c.client.post(ctx, equipmentCharacteristicPath+"/bulk", req, nil)
}

func (c *CharacteristicClient) Create(ctx context.Context, item model.Characteristic) (*model.Characteristic, error) {
	var created model.Characteristic
	if err := c.client.post(ctx, characteristicPath, item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *CharacteristicClient) Update(ctx context.Context, id int64, item model.Characteristic) error {
	return c.client.put(ctx, idPath(characteristicPath, id), item, nil)
}

// CanDelete asks the API whether the characteristic is still referenced.
func (c *CharacteristicClient) CanDelete(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := c.client.get(ctx, idPath(characteristicPath+"/canDelete", id), nil, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *CharacteristicClient) Delete(ctx context.Context, id int64) error {
	return c.client.delete(ctx, idPath(characteristicPath, id))
}

func (c *CharacteristicClient) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.client.get(ctx, characteristicPath+"/count", nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}
