package shopclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/costumerental-backend/internal/costumes"
	"github.com/angelmondragon/costumerental-backend/internal/customers"
	"github.com/angelmondragon/costumerental-backend/internal/rentals"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
	"github.com/google/uuid"
)

// Customers returns the remote customer collaborator.
func (c *Client) Customers() customers.Service { return customerAPI{c} }

// Costumes returns the remote catalog collaborator.
func (c *Client) Costumes() costumes.Service { return costumeAPI{c} }

// Rentals returns the remote rental collaborator.
func (c *Client) Rentals() rentals.Service { return rentalAPI{c} }

type customerAPI struct{ c *Client }

func (a customerAPI) CreateCustomer(ctx context.Context, input customers.CreateInput) (*models.Customer, error) {
	var out models.Customer
	if err := a.c.do(ctx, http.MethodPost, "customers", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a customerAPI) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var out models.Customer
	if err := a.c.do(ctx, http.MethodGet, "customers/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a customerAPI) List(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	if err := a.c.do(ctx, http.MethodGet, "customers", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type costumeAPI struct{ c *Client }

func (a costumeAPI) List(ctx context.Context) ([]models.Costume, error) {
	var out []models.Costume
	if err := a.c.do(ctx, http.MethodGet, "costumes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a costumeAPI) Get(ctx context.Context, id uuid.UUID) (*models.Costume, error) {
	var out models.Costume
	if err := a.c.do(ctx, http.MethodGet, "costumes/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a costumeAPI) Create(ctx context.Context, input costumes.CreateInput) (*models.Costume, error) {
	var out models.Costume
	if err := a.c.do(ctx, http.MethodPost, "costumes", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upsert creates the entry remotely. An existing (name, size) entry is
// returned as is; the remote surface has no catalog update endpoint.
func (a costumeAPI) Upsert(ctx context.Context, input costumes.CreateInput) (*models.Costume, bool, error) {
	created, err := a.Create(ctx, input)
	if err == nil {
		return created, true, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return nil, false, err
	}
	list, listErr := a.List(ctx)
	if listErr != nil {
		return nil, false, listErr
	}
	for i := range list {
		if strings.EqualFold(list[i].Name, strings.TrimSpace(input.Name)) && strings.EqualFold(list[i].Size, strings.TrimSpace(input.Size)) {
			return &list[i], false, nil
		}
	}
	return nil, false, err
}

type rentalAPI struct{ c *Client }

func (a rentalAPI) CreateRental(ctx context.Context, input rentals.CreateInput) (*models.Rental, error) {
	var out rentals.View
	if err := a.c.do(ctx, http.MethodPost, "rentals", nil, input, &out); err != nil {
		return nil, err
	}
	return &out.Rental, nil
}

func (a rentalAPI) Return(ctx context.Context, id uuid.UUID, actualReturnDate *types.Date) (*models.Rental, error) {
	body := struct {
		ActualReturnDate *types.Date `json:"actual_return_date,omitempty"`
	}{ActualReturnDate: actualReturnDate}
	var out rentals.View
	if err := a.c.do(ctx, http.MethodPost, "rentals/"+id.String()+"/return", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Rental, nil
}

func (a rentalAPI) Cancel(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var out rentals.View
	if err := a.c.do(ctx, http.MethodPost, "rentals/"+id.String()+"/cancel", nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out.Rental, nil
}

func (a rentalAPI) Get(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var out rentals.View
	if err := a.c.do(ctx, http.MethodGet, "rentals/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Rental, nil
}

func (a rentalAPI) List(ctx context.Context, query rentals.ListQuery) ([]models.Rental, error) {
	params := url.Values{}
	if query.Status != nil {
		params.Set("status", strings.ToLower(query.Status.String()))
	}
	if query.CustomerID != nil {
		params.Set("customer_id", query.CustomerID.String())
	}
	var out []rentals.View
	if err := a.c.do(ctx, http.MethodGet, "rentals", params, nil, &out); err != nil {
		return nil, err
	}
	list := make([]models.Rental, 0, len(out))
	for _, view := range out {
		list = append(list, view.Rental)
	}
	return list, nil
}
