package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"bizcard/internal/contact"
	"bizcard/internal/logging"
	"bizcard/internal/services"
	"bizcard/internal/store"
)

// Store is the persistence surface the reconciler needs.
type Store interface {
	InsertUnique(ctx context.Context, record contact.Record) (contact.Record, error)
	List(ctx context.Context) ([]contact.Record, error)
	Get(ctx context.Context, id int64) (contact.Record, error)
	UpdateWhere(ctx context.Context, selector store.Column, value any, target store.Column, newValue string) (int64, error)
	DeleteWhere(ctx context.Context, selector store.Column, value any) (int64, error)
}

// Reconciler applies saves, updates, and deletes to a Store.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// New constructs a reconciler over st.
func New(st Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: st, logger: logging.NewComponentLogger(logger, "reconciler")}
}

// Save inserts record unless a card with the same name exists, in which case
// a *DuplicateKeyError is returned and nothing is written.
func (r *Reconciler) Save(ctx context.Context, record contact.Record) (contact.Record, error) {
	if err := record.Validate(); err != nil {
		return contact.Record{}, services.Wrap(services.ErrValidation, "reconciler", "save", err.Error(), nil)
	}
	record.Email = normalizeEmail(record.Email)
	for _, f := range contact.Fields {
		if record.Get(f) == "" {
			record.Set(f, contact.Sentinel)
		}
	}

	saved, err := r.store.InsertUnique(ctx, record)
	if errors.Is(err, store.ErrDuplicate) {
		r.logger.WarnContext(ctx, "card already exists",
			logging.String("name", record.Name),
			logging.String("decision", "skip"),
		)
		return contact.Record{}, &DuplicateKeyError{Name: record.Name}
	}
	if err != nil {
		return contact.Record{}, fmt.Errorf("save card: %w", err)
	}
	r.logger.InfoContext(ctx, "card saved",
		logging.CardID(saved.ID),
		logging.String("name", saved.Name),
	)
	return saved, nil
}

// Update sets target to newValue on every card whose selector equals value
// and returns the number of rows changed.
func (r *Reconciler) Update(ctx context.Context, selector, value, target, newValue string) (int64, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return 0, err
	}
	field, err := parseTarget(target)
	if err != nil {
		return 0, err
	}
	col, arg, err := sel.column(value)
	if err != nil {
		return 0, err
	}
	if blank := strings.TrimSpace(newValue); field == contact.FieldName && (blank == "" || blank == contact.Sentinel) {
		return 0, services.Wrap(services.ErrValidation, "reconciler", "update", "name cannot be blank", nil)
	}
	if field == contact.FieldEmail {
		newValue = normalizeEmail(newValue)
	}

	n, err := r.store.UpdateWhere(ctx, col, arg, store.Column(field), newValue)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return 0, &DuplicateKeyError{Name: newValue}
	case err != nil:
		return 0, fmt.Errorf("update cards: %w", err)
	case n == 0:
		return 0, &NotFoundError{Selector: sel, Value: value}
	}
	r.logger.InfoContext(ctx, "cards updated",
		logging.String("selector", string(sel)),
		logging.String("value", value),
		logging.String("field", string(field)),
		logging.Int64("rows", n),
	)
	return n, nil
}

// Delete removes every card whose selector equals value and returns how many
// were removed.
func (r *Reconciler) Delete(ctx context.Context, selector, value string) (int64, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return 0, err
	}
	col, arg, err := sel.column(value)
	if err != nil {
		return 0, err
	}

	n, err := r.store.DeleteWhere(ctx, col, arg)
	if err != nil {
		return 0, fmt.Errorf("delete cards: %w", err)
	}
	if n == 0 {
		return 0, &NotFoundError{Selector: sel, Value: value}
	}
	r.logger.InfoContext(ctx, "cards deleted",
		logging.String("selector", string(sel)),
		logging.String("value", value),
		logging.Int64("rows", n),
	)
	return n, nil
}

// List returns every stored card ordered by id.
func (r *Reconciler) List(ctx context.Context) ([]contact.Record, error) {
	records, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return records, nil
}

// Get returns one card, image included.
func (r *Reconciler) Get(ctx context.Context, id int64) (contact.Record, error) {
	rec, err := r.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return contact.Record{}, &NotFoundError{Selector: SelectID, Value: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return contact.Record{}, fmt.Errorf("get card: %w", err)
	}
	return rec, nil
}

func normalizeEmail(email string) string {
	if email == contact.Sentinel {
		return email
	}
	return strings.ToLower(email)
}
