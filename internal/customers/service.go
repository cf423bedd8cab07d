package customers

import (
	"context"
	stdErrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/angelmondragon/costumerental-backend/pkg/db"
	"github.com/angelmondragon/costumerental-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service manages the customers rentals are booked for.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateInput) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
}

// CreateInput is the customer form captured at checkout. Only the first name
// and phone are mandatory at the form level; the backend additionally
// rejects malformed optional fields.
type CreateInput struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Phone     string  `json:"phone" validate:"required,max=40"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds the customer service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonTagName)
	return &service{repo: repo, validate: v}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CreateInput) (*models.Customer, error) {
	input = normalize(input)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return nil, validationError(err)
	}

	created, err := s.repo.Create(ctx, &models.Customer{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context) ([]models.Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return customers, nil
}

func normalize(input CreateInput) CreateInput {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = trimOptional(input.Email)
	input.Address = trimOptional(input.Address)
	return input
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stdErrors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer")
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "email":
			details[fe.Field()] = "must be a valid email"
		case "max":
			details[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			details[fe.Field()] = "is invalid"
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer").WithDetails(details)
}

func jsonTagName(f reflect.StructField) string {
	tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if tag == "" {
		return f.Name
	}
	return tag
}
