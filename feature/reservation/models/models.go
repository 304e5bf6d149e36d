package models

import "time"

// Reservation lifecycle states. EXPIRED and CANCELLED are terminal.
const (
	StatusActive    = "ACTIVE"
	StatusExpired   = "EXPIRED"
	StatusCancelled = "CANCELLED"
)

// StockReservation is a time-bounded claim on a quantity of an item.
// Status only ever moves ACTIVE -> EXPIRED (end date passed) or
// ACTIVE -> CANCELLED (stock no longer covers it); quantity only ever
// shrinks, through consumption release.
type StockReservation struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Item       string    `gorm:"column:item;size:255;index;not null" json:"item"`
	ReservedBy string    `gorm:"column:reserved_by;size:120;not null" json:"reserved_by"`
	Qty        float64   `gorm:"column:qty;not null" json:"qty"`
	StartDate  time.Time `gorm:"column:start_date;index;not null" json:"start_date"`
	EndDate    time.Time `gorm:"column:end_date;index;not null" json:"end_date"`
	Status     string    `gorm:"column:status;size:16;index;not null;default:'ACTIVE'" json:"status"`
	Remarks    string    `gorm:"column:remarks;size:512" json:"remarks,omitempty"`
}

// TableName overrides the table name.
func (StockReservation) TableName() string {
	return "stock_reservations"
}

// Today returns the current date truncated to midnight UTC. Reservation
// windows are whole days; all date math in the ledger goes through this.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
