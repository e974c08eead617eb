package services

import (
	"context"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// TransactionService orchestrates transaction writes across SQLite, the
// dashboard cache and AMQP.
type TransactionService struct {
	store    TransactionStore
	notifier *Notifier
	logger   *log.StructuredLogger
}

func NewTransactionService(store TransactionStore, notifier *Notifier, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:    store,
		notifier: notifier,
		logger:   log.NewStructuredLogger(componentLogger(logger, log.ComponentTransaction)),
	}
}

// Create validates the form and stores it for the acting user. The category
// must belong to that user.
func (s *TransactionService) Create(ctx context.Context, id core.Identity, in core.TransactionInput) (core.Transaction, error) {
	if !id.Authenticated() {
		return core.Transaction{}, core.ErrUnauthenticated
	}
	draft, err := in.Parse()
	if err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.CreateTransaction(ctx, draft.Transaction(id.UserID))
	if err != nil {
		return core.Transaction{}, err
	}
	s.logger.LogTransactionWritten(ctx, log.OpCreate, id.UserID, t.ID, string(t.Type), t.Amount.Cents, t.CategoryID)
	s.notifier.Changed(ctx, id.UserID, amqp.EntityTransaction, amqp.OpCreate, t.ID)
	return t, nil
}

// Get loads a transaction for editing.
func (s *TransactionService) Get(ctx context.Context, id core.Identity, txID int64) (core.Transaction, error) {
	if !id.Authenticated() {
		return core.Transaction{}, core.ErrUnauthenticated
	}
	t, err := s.store.Transaction(ctx, txID)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.UserID != id.UserID {
		return core.Transaction{}, core.ErrForbidden
	}
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, id core.Identity, txID int64, in core.TransactionInput) error {
	if !id.Authenticated() {
		return core.ErrUnauthenticated
	}
	draft, err := in.Parse()
	if err != nil {
		return err
	}
	t := draft.Transaction(id.UserID)
	t.ID = txID
	if err := s.store.UpdateTransaction(ctx, id.UserID, t); err != nil {
		return err
	}
	s.logger.LogTransactionWritten(ctx, log.OpUpdate, id.UserID, t.ID, string(t.Type), t.Amount.Cents, t.CategoryID)
	s.notifier.Changed(ctx, id.UserID, amqp.EntityTransaction, amqp.OpUpdate, txID)
	return nil
}

// Delete removes a transaction: ErrNotFound when absent, ErrForbidden when
// another user owns it.
func (s *TransactionService) Delete(ctx context.Context, id core.Identity, txID int64) error {
	if !id.Authenticated() {
		return core.ErrUnauthenticated
	}
	if err := s.store.DeleteTransaction(ctx, id.UserID, txID); err != nil {
		return err
	}
	s.logger.LogTransactionWritten(ctx, log.OpDelete, id.UserID, txID, "", 0, 0)
	s.notifier.Changed(ctx, id.UserID, amqp.EntityTransaction, amqp.OpDelete, txID)
	return nil
}
