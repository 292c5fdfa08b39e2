package gateway

import (
	"context"

	"equipment-console/internal/model"

	"golang.org/x/sync/errgroup"
)

// ReferenceClient reads the lookup lists behind the form selectors.
type ReferenceClient struct {
	client *Client
}

func NewReferenceClient(client *Client) *ReferenceClient {
	return &ReferenceClient{client: client}
}

func (r *ReferenceClient) Types(ctx context.Context) ([]model.EquipmentType, error) {
	var items []model.EquipmentType
	if err := r.client.get(ctx, "/TypeEquip", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ReferenceClient) Categories(ctx context.Context) ([]model.Category, error) {
	var items []model.Category
	if err := r.client.get(ctx, "/categorie", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ReferenceClient) Brands(ctx context.Context) ([]model.Brand, error) {
	var items []model.Brand
	if err := r.client.get(ctx, "/marque", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ReferenceClient) Units(ctx context.Context) ([]model.Unit, error) {
	var items []model.Unit
	if err := r.client.get(ctx, "/Unite", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ReferenceClient) IdenticalGroups(ctx context.Context) ([]model.IdenticalGroup, error) {
	var items []model.IdenticalGroup
	if err := r.client.get(ctx, "/GroupeIdentique", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// All loads every lookup list. A failing list is left empty and its error
// is returned alongside the partial result.
func (r *ReferenceClient) All(ctx context.Context) (*model.References, error) {
	var refs model.References
	var g errgroup.Group

	g.Go(func() (err error) { refs.Types, err = r.Types(ctx); return })
	g.Go(func() (err error) { refs.Categories, err = r.Categories(ctx); return })
	g.Go(func() (err error) { refs.Brands, err = r.Brands(ctx); return })
	g.Go(func() (err error) { refs.Units, err = r.Units(ctx); return })
	g.Go(func() (err error) { refs.Groups, err = r.IdenticalGroups(ctx); return })

	err := g.Wait()
	return &refs, err
}
