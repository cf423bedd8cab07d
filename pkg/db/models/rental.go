package models

import (
	"time"

	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/angelmondragon/costumerental-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rental is one unit of one costume out with one customer. A checkout for three
// units of the same costume produces three rows.
type Rental struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID         uuid.UUID          `gorm:"column:customer_id;type:uuid;not null" json:"customer_id"`
	CostumeID          uuid.UUID          `gorm:"column:costume_id;type:uuid;not null" json:"costume_id"`
	RentalDate         types.Date         `gorm:"column:rental_date;type:date;not null" json:"rental_date"`
	ExpectedReturnDate types.Date         `gorm:"column:expected_return_date;type:date;not null" json:"expected_return_date"`
	ActualReturnDate   *types.Date        `gorm:"column:actual_return_date;type:date" json:"actual_return_date,omitempty"`
	Status             enums.RentalStatus `gorm:"column:status;not null;default:'ACTIVE'" json:"status"`
	Notes              *string            `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Costume  *Costume  `gorm:"foreignKey:CostumeID;references:ID" json:"costume,omitempty"`
}

func (Rental) TableName() string { return "rentals" }

func (r *Rental) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ResolvedCustomerID returns the customer id from the row or its preloaded
// customer, and false when neither is set.
func (r Rental) ResolvedCustomerID() (uuid.UUID, bool) {
	if r.CustomerID != uuid.Nil {
		return r.CustomerID, true
	}
	if r.Customer != nil && r.Customer.ID != uuid.Nil {
		return r.Customer.ID, true
	}
	return uuid.Nil, false
}
