package commands_test

import (
	"errors"
	"testing"

	"ingestion/internal/core/application/usecases/commands"
	"ingestion/internal/core/domain/model/order"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFulfillCommand(t *testing.T, orderID int64) commands.FulfillOrderCommand {
	t.Helper()

	cmd, err := commands.NewFulfillOrderCommand(orderID, "R1")
	require.NoError(t, err)
	return cmd
}

func buildProcessingOrder(t *testing.T, id int64) *order.Order {
	t.Helper()

	aggregate := buildPersistedOrder(t, "R1", id)
	require.NoError(t, aggregate.StartProcessing())
	return aggregate
}

func TestFulfillOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	aggregate := buildProcessingOrder(t, 7)

	orders := new(MockOrderRepository)
	gateway := new(MockLogisticsGateway)

	mock.InOrder(
		orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once(),
		gateway.On("Notify", ctx, int64(7), "R1").Return(nil).Once(),
		orders.On("TransitionStatus", ctx, int64(7), order.Processing, order.Fulfilled).Return(true, nil).Once(),
	)

	h := commands.NewFulfillOrderCommandHandler(orders, gateway, newTestLogger())
	err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	orders.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestFulfillOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.FulfillOrderCommand{} // not constructed properly

	h := commands.NewFulfillOrderCommandHandler(
		new(MockOrderRepository), new(MockLogisticsGateway), newTestLogger())

	err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, commands.ErrFulfillOrderCommandIsNotConstructed)
}

func TestFulfillOrderCommandHandler_Handle_PendingOrderMovedToProcessingFirst(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	// Delivered before the publish confirmation was recorded.
	aggregate := buildPersistedOrder(t, "R1", 7)
	require.Equal(t, order.Pending, aggregate.Status())

	orders := new(MockOrderRepository)
	gateway := new(MockLogisticsGateway)

	mock.InOrder(
		orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once(),
		orders.On("TransitionStatus", ctx, int64(7), order.Pending, order.Processing).Return(true, nil).Once(),
		gateway.On("Notify", ctx, int64(7), "R1").Return(nil).Once(),
		orders.On("TransitionStatus", ctx, int64(7), order.Processing, order.Fulfilled).Return(true, nil).Once(),
	)

	h := commands.NewFulfillOrderCommandHandler(orders, gateway, newTestLogger())
	err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	orders.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestFulfillOrderCommandHandler_Handle_TerminalOrderAcknowledgedWithoutGateway(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	aggregate := buildProcessingOrder(t, 7)
	require.NoError(t, aggregate.Fulfill())

	orders := new(MockOrderRepository)
	orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once()

	gateway := new(MockLogisticsGateway)

	h := commands.NewFulfillOrderCommandHandler(orders, gateway, newTestLogger())
	err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	gateway.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillOrderCommandHandler_Handle_GatewayFailure(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	aggregate := buildProcessingOrder(t, 7)

	orders := new(MockOrderRepository)
	gateway := new(MockLogisticsGateway)

	mock.InOrder(
		orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once(),
		gateway.On("Notify", ctx, int64(7), "R1").Return(errors.New("timeout")).Once(),
	)

	h := commands.NewFulfillOrderCommandHandler(orders, gateway, newTestLogger())
	err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, commands.ErrGatewayUnavailable)

	var gatewayErr *commands.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	require.Equal(t, int64(7), gatewayErr.OrderID)

	// No status written; redelivery will retry the whole sequence.
	orders.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillOrderCommandHandler_Handle_LostTransitionToConcurrentWinner(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	aggregate := buildProcessingOrder(t, 7)
	fulfilled := buildProcessingOrder(t, 7)
	require.NoError(t, fulfilled.Fulfill())

	orders := new(MockOrderRepository)
	gateway := new(MockLogisticsGateway)

	mock.InOrder(
		orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once(),
		gateway.On("Notify", ctx, int64(7), "R1").Return(nil).Once(),
		orders.On("TransitionStatus", ctx, int64(7), order.Processing, order.Fulfilled).Return(false, nil).Once(),
		// Re-read finds a concurrent delivery already finished the order.
		orders.On("Get", ctx, int64(7)).Return(fulfilled, nil).Once(),
	)

	h := commands.NewFulfillOrderCommandHandler(orders, gateway, newTestLogger())
	err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	orders.AssertExpectations(t)
}

func TestFulfillOrderCommandHandler_Handle_LostTransitionNonTerminalRetried(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	aggregate := buildProcessingOrder(t, 7)
	stillProcessing := buildProcessingOrder(t, 7)

	orders := new(MockOrderRepository)
	gateway := new(MockLogisticsGateway)

	mock.InOrder(
		orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once(),
		gateway.On("Notify", ctx, int64(7), "R1").Return(nil).Once(),
		orders.On("TransitionStatus", ctx, int64(7), order.Processing, order.Fulfilled).Return(false, nil).Once(),
		orders.On("Get", ctx, int64(7)).Return(stillProcessing, nil).Once(),
	)

	h := commands.NewFulfillOrderCommandHandler(orders, gateway, newTestLogger())
	err := h.Handle(ctx, cmd)
	require.ErrorIs(t, err, commands.ErrGatewayUnavailable)
}

func TestFulfillOrderCommandHandler_MarkFailed(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	aggregate := buildProcessingOrder(t, 7)

	orders := new(MockOrderRepository)

	mock.InOrder(
		orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once(),
		orders.On("TransitionStatus", ctx, int64(7), order.Processing, order.Failed).Return(true, nil).Once(),
	)

	h := commands.NewFulfillOrderCommandHandler(orders, new(MockLogisticsGateway), newTestLogger())
	err := h.MarkFailed(ctx, cmd)
	require.NoError(t, err)

	orders.AssertExpectations(t)
}

func TestFulfillOrderCommandHandler_MarkFailed_TerminalOrderUntouched(t *testing.T) {
	ctx := t.Context()
	cmd := newFulfillCommand(t, 7)

	aggregate := buildProcessingOrder(t, 7)
	require.NoError(t, aggregate.Fulfill())

	orders := new(MockOrderRepository)
	orders.On("Get", ctx, int64(7)).Return(aggregate, nil).Once()

	h := commands.NewFulfillOrderCommandHandler(orders, new(MockLogisticsGateway), newTestLogger())
	err := h.MarkFailed(ctx, cmd)
	require.NoError(t, err)

	orders.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
