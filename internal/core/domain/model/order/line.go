package order

import (
	"errors"
	"fmt"

	"ingestion/internal/core/domain/model/kernel"
	"ingestion/internal/pkg/errs"
	"ingestion/internal/pkg/guard"
)

// ErrLineIsNotConstructed is returned when a Line instance was not created
// through the NewLine constructor.
var ErrLineIsNotConstructed = errors.New("Line must be created via NewLine constructor")

// Line is a value object for a single order position: a product, how many
// units of it, and the unit price. The line total is derived, never stored
// independently.
type Line struct {
	productSku  string
	productName string
	quantity    int
	unitPrice   kernel.Money

	guard guard.ConstructorGuard
}

// NewLine creates a validated order line.
// SKU and product name are required, quantity must be positive, and the unit
// price carries its own non-negativity invariant from kernel.Money.
func NewLine(productSku, productName string, quantity int, unitPrice kernel.Money) (Line, error) {
	line := Line{
		unitPrice: unitPrice,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		line.setProductSku(productSku),
		line.setProductName(productName),
		line.setQuantity(quantity),
	); err != nil {
		return Line{}, err
	}

	return line, nil
}

// Validate ensures the Line was created through NewLine.
func (l Line) Validate() error {
	return l.guard.Validate(ErrLineIsNotConstructed)
}

// ProductSku returns the product's stock keeping unit.
func (l Line) ProductSku() string {
	return l.productSku
}

// ProductName returns the product's display name.
func (l Line) ProductName() string {
	return l.productName
}

// Quantity returns the ordered unit count.
func (l Line) Quantity() int {
	return l.quantity
}

// UnitPrice returns the price of a single unit.
func (l Line) UnitPrice() kernel.Money {
	return l.unitPrice
}

// Total returns quantity times unit price.
func (l Line) Total() kernel.Money {
	return l.unitPrice.MulInt(l.quantity)
}

func (l *Line) setProductSku(productSku string) error {
	if productSku == "" {
		return errs.NewValueIsRequiredError("productSku")
	}
	l.productSku = productSku
	return nil
}

func (l *Line) setProductName(productName string) error {
	if productName == "" {
		return errs.NewValueIsRequiredError("productName")
	}
	l.productName = productName
	return nil
}

func (l *Line) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"quantity is invalid",
			fmt.Errorf("%d is not greater than 0", quantity),
		)
	}
	l.quantity = quantity
	return nil
}
