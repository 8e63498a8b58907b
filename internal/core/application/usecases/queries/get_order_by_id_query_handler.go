package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ingestion/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetOrderByIDQueryHandler reads one order straight from the database,
// bypassing the aggregate. The read side never needs the domain invariants,
// only the stored projection.
type GetOrderByIDQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderByIDQueryHandler creates a handler for single-order lookups.
func NewGetOrderByIDQueryHandler(db *gorm.DB) GetOrderByIDQueryHandler {
	return GetOrderByIDQueryHandler{db: db}
}

// Handle executes the lookup. Returns an ObjectNotFoundError when no order
// has the given id.
func (h GetOrderByIDQueryHandler) Handle(
	ctx context.Context,
	query GetOrderByIDQuery,
) (OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return OrderResponse{}, err
	}

	var resp OrderResponse
	var totalAmount, firstName, lastName string

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			request_id,
			customer_email,
			customer_first_name,
			customer_last_name,
			status,
			total_amount,
			platform,
			order_date,
			updated_at
		FROM orders
		WHERE id = ?
	`, query.OrderID()).Row()

	err := row.Scan(
		&resp.OrderID,
		&resp.RequestID,
		&resp.CustomerEmail,
		&firstName,
		&lastName,
		&resp.Status,
		&totalAmount,
		&resp.Platform,
		&resp.OrderDate,
		&resp.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderResponse{}, errs.NewObjectNotFoundError("orderId", query.OrderID())
	}
	if err != nil {
		return OrderResponse{}, err
	}

	resp.CustomerName = fmt.Sprintf("%s %s", firstName, lastName)
	resp.TotalAmount, err = decimal.NewFromString(totalAmount)
	if err != nil {
		return OrderResponse{}, err
	}

	resp.Items, err = h.loadItems(ctx, query.OrderID())
	if err != nil {
		return OrderResponse{}, err
	}

	return resp, nil
}

func (h GetOrderByIDQueryHandler) loadItems(ctx context.Context, orderID int64) ([]OrderItemResponse, error) {
	items := make([]OrderItemResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			product_sku,
			product_name,
			quantity,
			unit_price
		FROM order_items
		WHERE order_id = ?
		ORDER BY id
	`, orderID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItemResponse
		var unitPrice string

		if err = rows.Scan(&item.ProductSku, &item.ProductName, &item.Quantity, &unitPrice); err != nil {
			return nil, err
		}

		item.UnitPrice, err = decimal.NewFromString(unitPrice)
		if err != nil {
			return nil, err
		}
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
