package queries

import (
	"errors"
	"fmt"
	"time"

	"ingestion/internal/pkg/errs"
	"ingestion/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetOrderByIDQueryIsNotConstructed = errors.New(
		"GetOrderByIDQuery must be created via NewGetOrderByIDQuery constructor",
	)
)

// GetOrderByIDQuery retrieves one order with its lines and current status.
//
// Example:
//
//	query, err := NewGetOrderByIDQuery(42)
//	if err != nil {
//	    return err
//	}
//
//	order, err := handler.Handle(ctx, query)
type GetOrderByIDQuery struct { //nolint:recvcheck //using for validation
	orderID int64

	guard guard.ConstructorGuard
}

// NewGetOrderByIDQuery creates a query for one order by its store-assigned id.
func NewGetOrderByIDQuery(orderID int64) (GetOrderByIDQuery, error) {
	query := GetOrderByIDQuery{guard: guard.NewConstructorGuard()}

	if err := query.setOrderID(orderID); err != nil {
		return GetOrderByIDQuery{}, err
	}

	return query, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderByIDQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderByIDQueryIsNotConstructed)
}

// OrderID returns the requested order identifier.
func (q GetOrderByIDQuery) OrderID() int64 {
	return q.orderID
}

func (q *GetOrderByIDQuery) setOrderID(orderID int64) error {
	if orderID <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"orderId is invalid",
			fmt.Errorf("%d is not a valid order id", orderID),
		)
	}
	q.orderID = orderID
	return nil
}

// OrderItemResponse is one order line in a query response.
type OrderItemResponse struct {
	ProductSku  string          `json:"productSku"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// OrderResponse is the read-side projection of one order.
type OrderResponse struct {
	OrderID       int64               `json:"orderId"`
	RequestID     string              `json:"requestId"`
	CustomerEmail string              `json:"customerEmail"`
	CustomerName  string              `json:"customerName"`
	Status        string              `json:"status"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Platform      string              `json:"platform,omitempty"`
	OrderDate     time.Time           `json:"orderDate"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	Items         []OrderItemResponse `json:"items"`
}
