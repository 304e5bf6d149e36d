package models

// Movement directions as delivered by the system of record.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockItem is the authoritative item master row. The whole table is replaced
// by each sync cycle; nothing mutates single rows.
type StockItem struct {
	Name        string  `gorm:"column:name;primaryKey;size:255" json:"name"`
	Category    string  `gorm:"column:category;size:255;index" json:"category"`
	BaseUnit    string  `gorm:"column:base_unit;size:64" json:"base_unit"`
	OpeningQty  float64 `gorm:"column:opening_qty;not null;default:0" json:"opening_qty"`
	OpeningRate float64 `gorm:"column:opening_rate;not null;default:0" json:"opening_rate"`
}

// TableName overrides the table name.
func (StockItem) TableName() string {
	return "stock_items"
}

// StockMovement is one row of the movement ledger snapshot. Append-only within
// a snapshot; the snapshot itself is replaced wholesale by sync.
type StockMovement struct {
	ID           uint    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Date         string  `gorm:"column:date;size:32" json:"date"`
	VoucherNo    string  `gorm:"column:voucher_no;size:64" json:"voucher_no"`
	Company      string  `gorm:"column:company;size:255" json:"company"`
	Item         string  `gorm:"column:item;size:255;index" json:"item"`
	Qty          float64 `gorm:"column:qty;not null;default:0" json:"qty"`
	Rate         float64 `gorm:"column:rate;not null;default:0" json:"rate"`
	Amount       float64 `gorm:"column:amount;not null;default:0" json:"amount"`
	MovementType string  `gorm:"column:movement_type;size:8;index" json:"movement_type"`
	// Fingerprint identifies a movement across snapshot replacements, so the
	// pipeline can tell newly observed movements from re-delivered ones.
	Fingerprint string `gorm:"column:fingerprint;size:64;index" json:"-"`
}

// TableName overrides the table name.
func (StockMovement) TableName() string {
	return "stock_movements"
}
