package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Costume is a rentable catalog entry. Each size is its own row with its own
// stock count.
type Costume struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"column:name;not null;uniqueIndex:costumes_name_size_key" json:"name"`
	Category      string          `gorm:"column:category;not null;default:''" json:"category"`
	Size          string          `gorm:"column:size;not null;uniqueIndex:costumes_name_size_key" json:"size"`
	Description   *string         `gorm:"column:description" json:"description,omitempty"`
	SellPrice     decimal.Decimal `gorm:"column:sell_price;type:numeric(12,2);not null" json:"sell_price"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// ActiveRentals is filled by availability queries and never written back.
	ActiveRentals  int `gorm:"column:active_rentals;->;-:migration" json:"-"`
	AvailableStock int `gorm:"-" json:"available_stock"`
}

func (Costume) TableName() string { return "costumes" }

func (c *Costume) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ComputeAvailability sets AvailableStock to stock minus active rentals,
// clamped to [0, stock].
func (c *Costume) ComputeAvailability() {
	available := c.StockQuantity - c.ActiveRentals
	if available < 0 {
		available = 0
	}
	if available > c.StockQuantity {
		available = c.StockQuantity
	}
	c.AvailableStock = available
}
