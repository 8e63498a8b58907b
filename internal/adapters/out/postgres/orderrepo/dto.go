// Package orderrepo persists order aggregates with GORM.
// It maps the aggregate to an orders row plus order_items child rows and
// converts in both directions; the unique index on request_id is the
// idempotency constraint the whole ingestion path relies on.
package orderrepo

import (
	"time"

	"ingestion/internal/core/domain/model/kernel"
	"ingestion/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// OrderDTO is the database representation of an order aggregate.
// The id is store-assigned. request_id carries the unique index that makes
// concurrent inserts of the same logical order collapse into one row.
type OrderDTO struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	RequestID   string          `gorm:"type:varchar(64);uniqueIndex:idx_orders_request_id;not null"`
	Customer    CustomerDTO     `gorm:"embedded;embeddedPrefix:customer_"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status      string          `gorm:"type:varchar(16);index;not null"`
	Platform    string          `gorm:"type:varchar(32)"`
	OrderDate   time.Time       `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
	Items       []OrderItemDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default naming to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// CustomerDTO is the customer snapshot embedded in the orders table.
type CustomerDTO struct {
	Email     string `gorm:"type:varchar(255);not null"`
	FirstName string `gorm:"type:varchar(100);not null"`
	LastName  string `gorm:"type:varchar(100);not null"`
	Phone     string `gorm:"type:varchar(32)"`
}

// OrderItemDTO is one order line row.
type OrderItemDTO struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"index;not null"`
	ProductSku  string          `gorm:"type:varchar(64);not null"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

// TableName overrides GORM's default naming to use "order_items".
func (OrderItemDTO) TableName() string {
	return "order_items"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(aggregate.Lines()))
	for _, line := range aggregate.Lines() {
		items = append(items, OrderItemDTO{
			OrderID:     aggregate.ID(),
			ProductSku:  line.ProductSku(),
			ProductName: line.ProductName(),
			Quantity:    line.Quantity(),
			UnitPrice:   line.UnitPrice().Amount(),
		})
	}

	return OrderDTO{
		ID:        aggregate.ID(),
		RequestID: aggregate.RequestID(),
		Customer: CustomerDTO{
			Email:     aggregate.Customer().Email(),
			FirstName: aggregate.Customer().FirstName(),
			LastName:  aggregate.Customer().LastName(),
			Phone:     aggregate.Customer().Phone(),
		},
		TotalAmount: aggregate.TotalAmount().Amount(),
		Status:      aggregate.Status().String(),
		Platform:    aggregate.Platform(),
		OrderDate:   aggregate.OrderDate(),
		CreatedAt:   aggregate.CreatedAt(),
		UpdatedAt:   aggregate.UpdatedAt(),
		Items:       items,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	customer, err := order.NewCustomer(
		dto.Customer.Email,
		dto.Customer.FirstName,
		dto.Customer.LastName,
		dto.Customer.Phone,
	)
	if err != nil {
		return nil, err
	}

	lines := make([]order.Line, 0, len(dto.Items))
	for _, item := range dto.Items {
		unitPrice, priceErr := kernel.NewMoney(item.UnitPrice)
		if priceErr != nil {
			return nil, priceErr
		}

		line, lineErr := order.NewLine(item.ProductSku, item.ProductName, item.Quantity, unitPrice)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, line)
	}

	totalAmount, err := kernel.NewMoney(dto.TotalAmount)
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		dto.ID,
		dto.RequestID,
		customer,
		lines,
		totalAmount,
		status,
		dto.Platform,
		dto.OrderDate,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
