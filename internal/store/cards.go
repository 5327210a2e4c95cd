package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizcard/internal/contact"
	"bizcard/internal/logging"
)

// Column is a whitelisted business_cards column usable as a selector or update target.
type Column string

// ColumnID selects by surrogate key.
const ColumnID Column = "id"

const cardColumns = "id, name, designation, company_name, phone, email, website, street, city, state, pin_code"

// ParseColumn validates a column name against the id column and the ten text columns.
func ParseColumn(name string) (Column, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == string(ColumnID) {
		return ColumnID, nil
	}
	if f, ok := contact.ParseField(key); ok && string(f) == key {
		return Column(f), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColumn, name)
}

// InsertUnique inserts record unless a card with the same name exists. The
// check and the insert run in one transaction.
func (s *Store) InsertUnique(ctx context.Context, record contact.Record) (contact.Record, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	args := make([]any, 0, len(contact.Fields)+3)
	for _, value := range record.Values() {
		args = append(args, value)
	}
	args = append(args, nullableBytes(record.Image), now, now)

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existing int
		if err := tx.QueryRowContext(ctx, s.dialect.rebind("SELECT COUNT(1) FROM business_cards WHERE name = ?"), record.Name).Scan(&existing); err != nil {
			return fmt.Errorf("check existing name: %w", err)
		}
		if existing > 0 {
			return ErrDuplicate
		}
		row := tx.QueryRowContext(ctx, s.dialect.rebind(`INSERT INTO business_cards (
            name, designation, company_name, phone, email, website,
            street, city, state, pin_code, image, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`), args...)
		if err := row.Scan(&id); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert card: %w", err)
		}
		return nil
	})
	if err != nil {
		return contact.Record{}, err
	}
	record.ID = id
	s.logger.Debug("card inserted", logging.CardID(id))
	return record, nil
}

// List returns every card ordered by id, without image bytes.
func (s *Store) List(ctx context.Context) ([]contact.Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+cardColumns+" FROM business_cards ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var records []contact.Record
	for rows.Next() {
		record, err := scanCard(rows, false)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return records, nil
}

// Get returns the card with id including its image.
func (s *Store) Get(ctx context.Context, id int64) (contact.Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT "+cardColumns+", image FROM business_cards WHERE id = ?"), id)
	record, err := scanCard(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Record{}, ErrNotFound
	}
	return record, err
}

// Count returns the number of stored cards.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM business_cards").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// CountWhere returns the number of cards whose selector column equals value.
func (s *Store) CountWhere(ctx context.Context, selector Column, value any) (int, error) {
	if _, err := ParseColumn(string(selector)); err != nil {
		return 0, err
	}
	var n int
	query := s.dialect.rebind("SELECT COUNT(1) FROM business_cards WHERE " + string(selector) + " = ?")
	if err := s.db.QueryRowContext(ensureContext(ctx), query, value).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards by %s: %w", selector, err)
	}
	return n, nil
}

// UpdateWhere sets target to newValue on every card whose selector equals
// value and returns the number of rows changed.
func (s *Store) UpdateWhere(ctx context.Context, selector Column, value any, target Column, newValue string) (int64, error) {
	if _, err := ParseColumn(string(selector)); err != nil {
		return 0, err
	}
	if target == ColumnID {
		return 0, fmt.Errorf("%w: id is not updatable", ErrInvalidColumn)
	}
	if _, err := ParseColumn(string(target)); err != nil {
		return 0, err
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		"UPDATE business_cards SET "+string(target)+" = ?, updated_at = ? WHERE "+string(selector)+" = ?",
		newValue, now, value,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("update cards: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteWhere removes every card whose selector equals value and returns the
// number of rows removed.
func (s *Store) DeleteWhere(ctx context.Context, selector Column, value any) (int64, error) {
	if _, err := ParseColumn(string(selector)); err != nil {
		return 0, err
	}
	res, err := s.execWithRetry(ensureContext(ctx), "DELETE FROM business_cards WHERE "+string(selector)+" = ?", value)
	if err != nil {
		return 0, fmt.Errorf("delete cards: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner, withImage bool) (contact.Record, error) {
	var r contact.Record
	dest := []any{
		&r.ID, &r.Name, &r.Designation, &r.CompanyName, &r.Phone, &r.Email,
		&r.Website, &r.Street, &r.City, &r.State, &r.PinCode,
	}
	if withImage {
		dest = append(dest, &r.Image)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Record{}, err
		}
		return contact.Record{}, fmt.Errorf("scan card: %w", err)
	}
	return r, nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
