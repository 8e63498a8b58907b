package order

import (
	"errors"
	"net/mail"

	"ingestion/internal/pkg/errs"
	"ingestion/internal/pkg/guard"
)

// ErrCustomerIsNotConstructed is returned when a Customer instance was not
// created through the NewCustomer constructor.
var ErrCustomerIsNotConstructed = errors.New("Customer must be created via NewCustomer constructor")

// Customer is a value object describing the buyer attached to an order.
// It is immutable once attached to an order.
type Customer struct {
	email     string
	firstName string
	lastName  string
	phone     string

	guard guard.ConstructorGuard
}

// NewCustomer creates a validated Customer.
// Email, first name and last name are required; email must parse as an
// address. Phone is optional.
func NewCustomer(email, firstName, lastName, phone string) (Customer, error) {
	customer := Customer{
		phone: phone,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		customer.setEmail(email),
		customer.setFirstName(firstName),
		customer.setLastName(lastName),
	); err != nil {
		return Customer{}, err
	}

	return customer, nil
}

// Validate ensures the Customer was created through NewCustomer.
func (c Customer) Validate() error {
	return c.guard.Validate(ErrCustomerIsNotConstructed)
}

// Email returns the customer's email address.
func (c Customer) Email() string {
	return c.email
}

// FirstName returns the customer's first name.
func (c Customer) FirstName() string {
	return c.firstName
}

// LastName returns the customer's last name.
func (c Customer) LastName() string {
	return c.lastName
}

// Phone returns the customer's phone number, empty when not provided.
func (c Customer) Phone() string {
	return c.phone
}

func (c *Customer) setEmail(email string) error {
	if email == "" {
		return errs.NewValueIsRequiredError("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("email", err)
	}
	c.email = email
	return nil
}

func (c *Customer) setFirstName(firstName string) error {
	if firstName == "" {
		return errs.NewValueIsRequiredError("firstName")
	}
	c.firstName = firstName
	return nil
}

func (c *Customer) setLastName(lastName string) error {
	if lastName == "" {
		return errs.NewValueIsRequiredError("lastName")
	}
	c.lastName = lastName
	return nil
}
