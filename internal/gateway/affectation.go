package gateway

import (
	"context"
	"fmt"

	"equipment-console/internal/model"
)

const affectationPath = "/Affectation"

// AffectationClient maps unit assignments.
type AffectationClient struct {
	client *Client
}

func NewAffectationClient(client *Client) *AffectationClient {
	return &AffectationClient{client: client}
}

// CreateAssignment submits one assignment. Blank references are sent as "UNKNOWN".
func (a *AffectationClient) CreateAssignment(ctx context.Context, req model.Affectation) error {
	return a.client.post(ctx, affectationPath, req.WithDefaults(), nil)
}

// GetByEquipment returns the current assignment, or nil when the API returns none.
func (a *AffectationClient) GetByEquipment(ctx context.Context, equipmentID int64) (*model.Affectation, error) {
	var item *model.Affectation
	if err := a.client.get(ctx, fmt.Sprintf("%s/equipement/%d", affectationPath, equipmentID), nil, &item); err != nil {
		return nil, err
	}
	return item, nil
}
