package support

import (
	"context"

	"programhub/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit of work in ctx or opens a read-only one. The
// returned cleanup is nil when an existing unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	cleanup := func() {
		_ = unit.Rollback(execCtx)
	}
	return unit, execCtx, cleanup, nil
}

// RequireUnit returns the unit of work opened by the transaction middleware.
func RequireUnit(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	return unit, nil
}
