package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrSettingNotFound is returned when a settings key has no row.
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting loads a JSON settings value into target. Callers treat
// ErrSettingNotFound as "use compiled defaults".
func (db *DB) GetSetting(ctx context.Context, key string, target interface{}) error {
	var value []byte

	err := db.Pool.QueryRow(ctx, `
		SELECT value FROM settings WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSettingNotFound
		}

		return fmt.Errorf("get setting %s: %w", key, err)
	}

	if err := json.Unmarshal(value, target); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}

	return nil
}

// SetSetting stores a JSON settings value under key.
func (db *DB) SetSetting(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, data)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	return nil
}
