package commands_test

import (
	"log/slog"
	"testing"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCompletePickupHandler(factory commands.OrderUoWFactory, hook *recordingHook) commands.CompletePickupOrderCommandHandler {
	return commands.NewCompletePickupOrderCommandHandler(factory,
		commands.NewPostCommitHooks(slog.New(slog.DiscardHandler), hook))
}

func TestCompletePickupOrderCommandHandler_Handle_StillPickedUp(t *testing.T) {
	ctx := t.Context()
	o := restoredOrder(t, order.TypePickup, order.PickedUp, nil)

	repo := new(MockOrderRepository)
	repo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	repo.On("Update", ctx, o).Return(nil).Once()
	factory, uow := singleUoW(repo)
	hook := &recordingHook{}

	cmd, err := commands.NewCompletePickupOrderCommand(o.ID())
	require.NoError(t, err)

	require.NoError(t, newCompletePickupHandler(factory, hook).Handle(ctx, cmd))

	assert.Equal(t, order.Completed, o.Status())
	last := o.LastHistory(1)[0]
	assert.Equal(t, order.Completed, last.Status)
	assert.Nil(t, last.UpdatedBy)
	require.Len(t, hook.changes, 1)
	assert.Equal(t, order.PickedUp, hook.changes[0].PreviousStatus)
	assert.Equal(t, order.RoleSystem, hook.changes[0].Actor.Role)
	uow.AssertCalled(t, "Commit", ctx)
}

func TestCompletePickupOrderCommandHandler_Handle_CancelledFirst(t *testing.T) {
	ctx := t.Context()
	o := restoredOrder(t, order.TypePickup, order.Cancelled, nil)
	historyLen := len(o.History())

	repo := new(MockOrderRepository)
	repo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	factory, uow := singleUoW(repo)
	hook := &recordingHook{}

	cmd, err := commands.NewCompletePickupOrderCommand(o.ID())
	require.NoError(t, err)

	err = newCompletePickupHandler(factory, hook).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrOrderClosed)
	assert.Equal(t, order.Cancelled, o.Status())
	assert.Len(t, o.History(), historyLen)
	assert.Empty(t, hook.changes)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestCompletePickupOrderCommandHandler_Handle_DeliveryOrdersAreIgnored(t *testing.T) {
	ctx := t.Context()
	o := restoredOrder(t, order.TypeDelivery, order.PickedUp, nil)

	repo := new(MockOrderRepository)
	repo.On("Get", ctx, o.ID()).Return(o, nil).Once()
	factory, _ := singleUoW(repo)

	cmd, err := commands.NewCompletePickupOrderCommand(o.ID())
	require.NoError(t, err)

	err = newCompletePickupHandler(factory, &recordingHook{}).Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Equal(t, order.PickedUp, o.Status())
}

func TestNewCompletePickupOrderCommand_InvalidID(t *testing.T) {
	_, err := commands.NewCompletePickupOrderCommand(kernel.UUID{})
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}
