package db

import (
	"context"

	"github.com/tphummel/lessee/internal/models"
)

// CountPlatforms returns the number of platform rows.
func (d *DB) CountPlatforms(ctx context.Context) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM platforms`).Scan(&n)
	return n, err
}

// CreatePlatform inserts a new platform. Returns ErrDuplicate if the name is taken.
func (d *DB) CreatePlatform(ctx context.Context, p *models.Platform) error {
	_, err := d.conn.ExecContext(ctx, `INSERT INTO platforms (id, name) VALUES (?, ?)`, p.ID, p.Name)
	return translate(err)
}

// GetPlatform returns the platform with the given ID, or sql.ErrNoRows if not found.
func (d *DB) GetPlatform(ctx context.Context, id string) (*models.Platform, error) {
	var p models.Platform
	err := d.conn.QueryRowContext(ctx, `SELECT id, name FROM platforms WHERE id = ?`, id).Scan(&p.ID, &p.Name)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlatforms returns all platforms in insertion order.
func (d *DB) ListPlatforms(ctx context.Context) ([]*models.Platform, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, name FROM platforms ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []*models.Platform
	for rows.Next() {
		var p models.Platform
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		platforms = append(platforms, &p)
	}
	return platforms, rows.Err()
}

// SeedPlatforms inserts platforms in one transaction when the table is empty
// and returns how many were inserted. Nothing is written when any platform
// already exists or when any insert fails.
func (d *DB) SeedPlatforms(ctx context.Context, platforms []*models.Platform) (int, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM platforms`).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, p := range platforms {
		if _, err := tx.ExecContext(ctx, `INSERT INTO platforms (id, name) VALUES (?, ?)`, p.ID, p.Name); err != nil {
			return 0, translate(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(platforms), nil
}
