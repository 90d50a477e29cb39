package db

import (
	"context"
	"database/sql"

	"github.com/tphummel/lessee/internal/models"
)

const hardwareColumns = `id, name, address, platform_id, created_at, updated_at`

// CreateHardware inserts a new hardware record. Returns ErrDuplicate when the
// name or address is already in use.
func (d *DB) CreateHardware(ctx context.Context, h *models.Hardware) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO hardware (`+hardwareColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Address, h.PlatformID,
		formatTime(h.CreatedAt),
		formatTime(h.UpdatedAt),
	)
	return translate(err)
}

// GetHardware returns the hardware with the given ID, or sql.ErrNoRows if not found.
func (d *DB) GetHardware(ctx context.Context, id string) (*models.Hardware, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+hardwareColumns+` FROM hardware WHERE id = ?`, id)
	return scanHardware(row)
}

// ListHardware returns all hardware in insertion order, optionally filtered
// by platform.
func (d *DB) ListHardware(ctx context.Context, platformID string) ([]*models.Hardware, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if platformID != "" {
		rows, err = d.conn.QueryContext(ctx, `
			SELECT `+hardwareColumns+`
			FROM hardware WHERE platform_id = ? ORDER BY rowid`, platformID)
	} else {
		rows, err = d.conn.QueryContext(ctx, `
			SELECT `+hardwareColumns+`
			FROM hardware ORDER BY rowid`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hardware []*models.Hardware
	for rows.Next() {
		h, err := scanHardware(rows)
		if err != nil {
			return nil, err
		}
		hardware = append(hardware, h)
	}
	return hardware, rows.Err()
}

// HardwareExists reports whether any hardware matches name or address.
func (d *DB) HardwareExists(ctx context.Context, name, address string) (bool, error) {
	var n int
	err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hardware WHERE name = ? OR address = ?`, name, address,
	).Scan(&n)
	return n > 0, err
}

// CountHardware returns the number of hardware rows.
func (d *DB) CountHardware(ctx context.Context) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM hardware`).Scan(&n)
	return n, err
}

// DeleteAllHardware removes every hardware record and, by cascade, their leases.
func (d *DB) DeleteAllHardware(ctx context.Context) error {
	_, err := d.conn.ExecContext(ctx, `DELETE FROM hardware`)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHardware(s scanner) (*models.Hardware, error) {
	var h models.Hardware
	var createdAt, updatedAt string
	if err := s.Scan(&h.ID, &h.Name, &h.Address, &h.PlatformID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}
