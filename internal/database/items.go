package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
)

// Item origins. Seed items ship with the binary; file items come from the
// watched items JSON; api items are imported through the teacher surface.
const (
	ItemSourceSeed = "seed"
	ItemSourceFile = "file"
	ItemSourceAPI  = "api"
)

// ReplaceItemsBySource swaps all items of one source in a single
// transaction. Items from other sources are untouched.
func (db *DB) ReplaceItemsBySource(source string, items []bank.Item) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM items WHERE source = ?", source); err != nil {
			return fmt.Errorf("failed to clear %s items: %w", source, err)
		}

		now := time.Now()
		stmt, err := tx.Prepare(`
			INSERT INTO items (lf, area, level, type, payload, source, enabled, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare item insert: %w", err)
		}
		defer stmt.Close()

		for i := range items {
			payload, err := items[i].MarshalPayload()
			if err != nil {
				return err
			}
			if _, err := stmt.Exec(items[i].LF, items[i].Area, items[i].Level,
				string(items[i].Type), payload, source, now, now); err != nil {
				return fmt.Errorf("failed to insert item: %w", err)
			}
		}
		return nil
	})
}

// SeedItemsIfEmpty writes the embedded seed bank on first run only. Later
// starts keep the stored rows, so item ids referenced by attempts survive
// restarts.
func (db *DB) SeedItemsIfEmpty(items []bank.Item) (bool, error) {
	count, err := db.CountItemsBySource(ItemSourceSeed)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := db.ReplaceItemsBySource(ItemSourceSeed, items); err != nil {
		return false, err
	}
	return true, nil
}

// ListEnabledItems loads all enabled items, ready for the in-memory bank.
func (db *DB) ListEnabledItems() ([]bank.Item, error) {
	rows, err := db.Query(`
		SELECT id, lf, area, level, type, payload
		FROM items WHERE enabled = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []bank.Item
	for rows.Next() {
		var it bank.Item
		var typ, payload string
		if err := rows.Scan(&it.ID, &it.LF, &it.Area, &it.Level, &typ, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Type = bank.ItemType(typ)
		if err := it.UnmarshalPayload(payload); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListItems returns enabled items filtered by Lernfeld and optionally area.
func (db *DB) ListItems(lf, area string) ([]bank.Item, error) {
	query := `
		SELECT id, lf, area, level, type, payload
		FROM items WHERE enabled = 1 AND lf = ?
	`
	args := []any{lf}
	if area != "" {
		query += " AND area = ?"
		args = append(args, area)
	}
	query += " ORDER BY area, level, id"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []bank.Item
	for rows.Next() {
		var it bank.Item
		var typ, payload string
		if err := rows.Scan(&it.ID, &it.LF, &it.Area, &it.Level, &typ, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Type = bank.ItemType(typ)
		if err := it.UnmarshalPayload(payload); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountItemsBySource reports how many items a source currently has.
func (db *DB) CountItemsBySource(source string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM items WHERE source = ?", source).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}
