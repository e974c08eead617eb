package services

import (
	"context"
	"fmt"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// CategoryService manages a user's categories.
type CategoryService struct {
	store    CategoryStore
	notifier *Notifier
	logger   *log.Logger
}

func NewCategoryService(store CategoryStore, notifier *Notifier, logger *log.Logger) *CategoryService {
	return &CategoryService{
		store:    store,
		notifier: notifier,
		logger:   componentLogger(logger, log.ComponentCategory),
	}
}

func (s *CategoryService) Create(ctx context.Context, id core.Identity, in core.CategoryInput) (core.Category, error) {
	if !id.Authenticated() {
		return core.Category{}, core.ErrUnauthenticated
	}
	c, err := in.Parse()
	if err != nil {
		return core.Category{}, err
	}
	c.UserID = id.UserID
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Category created",
		log.FieldUserID, id.UserID,
		log.FieldCategoryID, created.ID)
	s.notifier.Changed(ctx, id.UserID, amqp.EntityCategory, amqp.OpCreate, created.ID)
	return created, nil
}

// List returns the user's categories ordered by name.
func (s *CategoryService) List(ctx context.Context, id core.Identity) ([]core.Category, error) {
	if !id.Authenticated() {
		return nil, core.ErrUnauthenticated
	}
	return s.store.Categories(ctx, id.UserID)
}

// Get loads a category for editing.
func (s *CategoryService) Get(ctx context.Context, id core.Identity, categoryID int64) (core.Category, error) {
	if !id.Authenticated() {
		return core.Category{}, core.ErrUnauthenticated
	}
	c, err := s.store.Category(ctx, categoryID)
	if err != nil {
		return core.Category{}, err
	}
	if c.UserID != id.UserID {
		return core.Category{}, core.ErrForbidden
	}
	return c, nil
}

// Update renames a category. Transactions reference it by id so they follow.
func (s *CategoryService) Update(ctx context.Context, id core.Identity, categoryID int64, in core.CategoryInput) error {
	if !id.Authenticated() {
		return core.ErrUnauthenticated
	}
	c, err := in.Parse()
	if err != nil {
		return err
	}
	c.ID = categoryID
	if err := s.store.UpdateCategory(ctx, id.UserID, c); err != nil {
		return err
	}
	s.notifier.Changed(ctx, id.UserID, amqp.EntityCategory, amqp.OpUpdate, categoryID)
	return nil
}

// Delete removes an unused category; ErrCategoryInUse otherwise.
func (s *CategoryService) Delete(ctx context.Context, id core.Identity, categoryID int64) error {
	if !id.Authenticated() {
		return core.ErrUnauthenticated
	}
	if err := s.store.DeleteCategory(ctx, id.UserID, categoryID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldUserID, id.UserID,
		log.FieldCategoryID, categoryID)
	s.notifier.Changed(ctx, id.UserID, amqp.EntityCategory, amqp.OpDelete, categoryID)
	return nil
}

// TransactionCount reports how many transactions reference a category the
// user owns.
func (s *CategoryService) TransactionCount(ctx context.Context, id core.Identity, categoryID int64) (int64, error) {
	if _, err := s.Get(ctx, id, categoryID); err != nil {
		return 0, err
	}
	n, err := s.store.CountTransactionsForCategory(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// TransactionCounts returns the number of transactions per category for the
// whole category list in one query. Categories without transactions are absent.
func (s *CategoryService) TransactionCounts(ctx context.Context, id core.Identity) (map[int64]int64, error) {
	if !id.Authenticated() {
		return nil, core.ErrUnauthenticated
	}
	counts, err := s.store.TransactionCountsByCategory(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	return counts, nil
}
