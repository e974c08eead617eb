// Package worker keeps the spreadsheet mirror in step with the database.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/report"
	"bilancio/internal/sheets"
)

// TransactionSource loads a user's full history, newest first.
// services.Aggregator satisfies it.
type TransactionSource interface {
	FilteredTransactions(ctx context.Context, id core.Identity, f core.TransactionFilter) ([]core.Transaction, error)
}

// UserLister enumerates every account for the periodic resync.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// MirrorWorker rewrites a user's tab whenever their data changes.
type MirrorWorker struct {
	source TransactionSource
	users  UserLister
	writer sheets.StatementWriter
	logger *log.Logger
}

func NewMirrorWorker(source TransactionSource, users UserLister, writer sheets.StatementWriter, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		source: source,
		users:  users,
		writer: writer,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange is the AMQP consumer callback. Events only carry ids, so every
// event triggers a full rewrite of the owner's tab.
func (w *MirrorWorker) HandleChange(ctx context.Context, ev *amqp.ChangeEvent) error {
	if ev == nil || ev.UserID <= 0 {
		return fmt.Errorf("%w: change event without user", amqp.ErrDiscard)
	}
	w.logger.InfoContext(ctx, "Processing change event",
		log.FieldUserID, ev.UserID,
		log.FieldEntity, ev.Entity,
		log.FieldOperation, ev.Operation,
		log.FieldEntityID, ev.EntityID)
	err := w.SyncUser(ctx, ev.UserID)
	if errors.Is(err, sheets.ErrRejected) {
		return fmt.Errorf("%w: %w", amqp.ErrDiscard, err)
	}
	return err
}

// SyncUser writes the user's complete statement to their tab.
func (w *MirrorWorker) SyncUser(ctx context.Context, userID int64) error {
	txs, err := w.source.FilteredTransactions(ctx, core.Identity{UserID: userID}, core.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("load transactions for user %d: %w", userID, err)
	}
	st := report.BuildStatement(txs)
	if err := w.writer.WriteStatement(ctx, sheets.TabName(userID), st); err != nil {
		return fmt.Errorf("write statement for user %d: %w", userID, err)
	}
	w.logger.DebugContext(ctx, "User mirrored", log.FieldUserID, userID, "rows", len(st.Rows))
	return nil
}

// ResyncAll mirrors every user, continuing past individual failures.
func (w *MirrorWorker) ResyncAll(ctx context.Context) error {
	ids, err := w.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var errs []error
	synced := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.SyncUser(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Resync failed", log.FieldUserID, id, log.FieldError, err)
			errs = append(errs, err)
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		"total", len(ids),
		"synced", synced,
		"errors", len(errs))
	return errors.Join(errs...)
}

// RunPeriodic resyncs at startup and then every interval until ctx ends. It
// covers change events lost while the worker or broker was down.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	if err := w.ResyncAll(ctx); err != nil && ctx.Err() == nil {
		w.logger.WarnContext(ctx, "Startup resync incomplete", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ResyncAll(ctx); err != nil && ctx.Err() == nil {
				w.logger.WarnContext(ctx, "Periodic resync incomplete", log.FieldError, err)
			}
		}
	}
}
