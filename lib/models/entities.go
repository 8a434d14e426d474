package models

import (
	"database/sql"
	"time"
)

// User ids are opaque and externally issued; a user exists once something
// references them and is never explicitly deleted.
type User struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// Product rows are shared: deleting one (when its last subscriber leaves)
// takes its subscriptions and history with it, handled explicitly by the
// store so sqlite needs no foreign-key pragma.
type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Locator     string `gorm:"index:idx_locator_store,unique"` // Composite unique index on locator & store
	StoreID     string `gorm:"index:idx_locator_store,unique"`
	Title       string
	InStock     bool
	LastChecked sql.NullTime
	CreatedAt   time.Time
}

type Products []*Product

type Subscription struct {
	UserID    string `gorm:"primaryKey"`
	ProductID uint   `gorm:"primaryKey"`
	Notified  bool
	AddedAt   time.Time
}

type Subscriptions []Subscription

type StockEvent struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"index"`
	InStock   bool
	CheckedAt time.Time
}

type StockEvents []StockEvent
