package commands

import (
	"errors"
	"fmt"
	"time"

	"ingestion/internal/pkg/errs"
	"ingestion/internal/pkg/guard"
)

var (
	ErrRepublishPendingOrdersCommandIsNotConstructed = errors.New(
		"RepublishPendingOrdersCommand must be created via NewRepublishPendingOrdersCommand constructor",
	)
)

// RepublishPendingOrdersCommand triggers one sweep over orders that are
// still Pending past the stale cutoff. These are orders whose hand-off
// event was never confirmed published.
type RepublishPendingOrdersCommand struct { //nolint:recvcheck //using for validation
	staleAfter time.Duration

	guard guard.ConstructorGuard
}

// NewRepublishPendingOrdersCommand creates a sweep command. staleAfter is
// how long an order may stay Pending before the sweep picks it up; it must
// be long enough that in-flight ingestions are never swept.
func NewRepublishPendingOrdersCommand(staleAfter time.Duration) (RepublishPendingOrdersCommand, error) {
	cmd := RepublishPendingOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setStaleAfter(staleAfter); err != nil {
		return RepublishPendingOrdersCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RepublishPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrRepublishPendingOrdersCommandIsNotConstructed)
}

// StaleAfter returns the Pending age threshold.
func (c RepublishPendingOrdersCommand) StaleAfter() time.Duration {
	return c.staleAfter
}

func (c *RepublishPendingOrdersCommand) setStaleAfter(staleAfter time.Duration) error {
	if staleAfter <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"staleAfter is invalid",
			fmt.Errorf("%s is not a positive duration", staleAfter),
		)
	}
	c.staleAfter = staleAfter
	return nil
}
