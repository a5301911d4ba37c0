package models

import (
	"fmt"
	"time"
)

// Order is the aggregate root stored in the model table. It owns exactly one
// Delivery and one Payment through non-nullable foreign keys; items are
// linked through the order_to_item association table and are loaded
// explicitly by the repository, so the field is invisible to gorm.
// Column names are the contract with the existing store and must not change.
type Order struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OrderUID          string    `gorm:"column:order_uid;type:varchar(50);uniqueIndex;not null" json:"order_uid"`
	TrackNumber       string    `gorm:"column:track_number;type:varchar(50)" json:"track_number"`
	Entry             string    `gorm:"column:model_entry;type:varchar(20)" json:"entry"`
	DeliveryID        int64     `gorm:"column:delivery_id;not null" json:"-"`
	Delivery          Delivery  `gorm:"foreignKey:DeliveryID" json:"delivery"`
	PaymentID         int64     `gorm:"column:payment_id;not null" json:"-"`
	Payment           Payment   `gorm:"foreignKey:PaymentID" json:"payment"`
	Items             []Item    `gorm:"-" json:"items"`
	Locale            string    `gorm:"column:locale;type:varchar(10)" json:"locale"`
	InternalSignature string    `gorm:"column:internal_signature;type:varchar(255)" json:"internal_signature"`
	CustomerID        string    `gorm:"column:customer_id;type:varchar(50)" json:"customer_id"`
	DeliveryService   string    `gorm:"column:delivery_service;type:varchar(50)" json:"delivery_service"`
	Shardkey          string    `gorm:"column:shardkey;type:varchar(10)" json:"shardkey"`
	SmID              int       `gorm:"column:sm_id" json:"sm_id"`
	DateCreated       time.Time `gorm:"column:date_created" json:"date_created"`
	OofShard          string    `gorm:"column:oof_shard;type:varchar(10)" json:"oof_shard"`
}

func (Order) TableName() string { return "model" }

// Delivery is the recipient record, exclusively owned by one order. Its
// surrogate key exists only to be referenced from the model table.
type Delivery struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Name    string `gorm:"column:del_name;type:varchar(100);not null" json:"name"`
	Phone   string `gorm:"column:phone;type:varchar(20);not null" json:"phone"`
	Zip     string `gorm:"column:zip;type:varchar(20)" json:"zip"`
	City    string `gorm:"column:city;type:varchar(100);not null" json:"city"`
	Address string `gorm:"column:del_address;type:varchar(255);not null" json:"address"`
	Region  string `gorm:"column:region;type:varchar(100)" json:"region"`
	Email   string `gorm:"column:email;type:varchar(100)" json:"email"`
}

func (Delivery) TableName() string { return "delivery" }

// Payment is the payment record, exclusively owned by one order. The
// transaction id is a business key and unique across the store.
type Payment struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Transaction  string `gorm:"column:transaction_id;type:varchar(50);uniqueIndex;not null" json:"transaction"`
	RequestID    string `gorm:"column:request_id;type:varchar(50)" json:"request_id"`
	Currency     string `gorm:"column:currency;type:varchar(10)" json:"currency"`
	Provider     string `gorm:"column:provider_name;type:varchar(50)" json:"provider"`
	Amount       int    `gorm:"column:amount" json:"amount"`
	PaymentDt    int64  `gorm:"column:payment_dt" json:"payment_dt"`
	Bank         string `gorm:"column:bank;type:varchar(50)" json:"bank"`
	DeliveryCost int    `gorm:"column:delivery_cost" json:"delivery_cost"`
	GoodsTotal   int    `gorm:"column:goods_total" json:"goods_total"`
	CustomFee    int    `gorm:"column:custom_fee" json:"custom_fee"`
}

func (Payment) TableName() string { return "payment" }

// Item is independently addressable by its chart id, which doubles as the
// primary key. The total_prize column name is historical and kept for
// compatibility with the existing store.
type Item struct {
	ChrtID      int64  `gorm:"column:chrt_id;primaryKey;autoIncrement:false" json:"chrt_id"`
	TrackNumber string `gorm:"column:track_number;type:varchar(50)" json:"track_number"`
	Price       int    `gorm:"column:price" json:"price"`
	Rid         string `gorm:"column:rid;type:varchar(50)" json:"rid"`
	Name        string `gorm:"column:item_name;type:varchar(100)" json:"name"`
	Sale        int    `gorm:"column:sale" json:"sale"`
	Size        string `gorm:"column:item_size;type:varchar(10)" json:"size"`
	TotalPrice  int    `gorm:"column:total_prize" json:"total_price"`
	NmID        int64  `gorm:"column:nm_id" json:"nm_id"`
	Brand       string `gorm:"column:brand;type:varchar(100)" json:"brand"`
	Status      int    `gorm:"column:item_status" json:"status"`
}

func (Item) TableName() string { return "item" }

// OrderItem is a pure association row linking an order's surrogate key to an
// item's chart id. It carries no attributes of its own.
type OrderItem struct {
	OrderID int64 `gorm:"column:order_id;primaryKey;autoIncrement:false"`
	ItemID  int64 `gorm:"column:item_id;primaryKey;autoIncrement:false"`
}

func (OrderItem) TableName() string { return "order_to_item" }

// Validate checks that the aggregate is complete enough to persist. It runs
// before any insert so a malformed order is rejected up front instead of
// surfacing as a constraint violation mid-sequence.
func (o *Order) Validate() error {
	if o.OrderUID == "" {
		return fmt.Errorf("order_uid is required")
	}
	if o.Delivery.Name == "" {
		return fmt.Errorf("delivery.name is required")
	}
	if o.Delivery.Phone == "" {
		return fmt.Errorf("delivery.phone is required")
	}
	if o.Delivery.City == "" {
		return fmt.Errorf("delivery.city is required")
	}
	if o.Delivery.Address == "" {
		return fmt.Errorf("delivery.address is required")
	}
	if o.Payment.Transaction == "" {
		return fmt.Errorf("payment.transaction is required")
	}
	if o.Payment.Amount < 0 {
		return fmt.Errorf("payment.amount must not be negative")
	}
	if o.Payment.DeliveryCost < 0 {
		return fmt.Errorf("payment.delivery_cost must not be negative")
	}
	for i, item := range o.Items {
		if item.ChrtID <= 0 {
			return fmt.Errorf("items[%d].chrt_id is required", i)
		}
		if item.Price < 0 {
			return fmt.Errorf("items[%d].price must not be negative", i)
		}
		if item.Sale < 0 || item.Sale > 100 {
			return fmt.Errorf("items[%d].sale must be between 0 and 100", i)
		}
	}
	return nil
}
