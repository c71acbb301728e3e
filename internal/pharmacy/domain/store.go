package domain

import "time"

// Store statuses
const (
	StoreActive   = "ACTIVE"
	StoreInactive = "INACTIVE"
)

// Store is a physical location holding batches.
type Store struct {
	ID        int64     `json:"id" db:"id"`
	StoreCode string    `json:"store_code" db:"store_code"`
	StoreName string    `json:"store_name" db:"store_name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
