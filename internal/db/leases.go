package db

import (
	"context"
	"database/sql"

	"github.com/tphummel/lessee/internal/models"
)

const leaseColumns = `id, hardware_id, start_at, end_at, created_at, updated_at`

// CreateLease inserts a new lease record.
func (d *DB) CreateLease(ctx context.Context, l *models.Lease) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO leases (`+leaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.HardwareID,
		formatTime(l.Start),
		formatTime(l.End),
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	return translate(err)
}

// ListLeases returns every lease ordered by end time, latest first.
func (d *DB) ListLeases(ctx context.Context) ([]*models.Lease, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+leaseColumns+`
		FROM leases ORDER BY end_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	return collectLeases(rows)
}

// LeasesForHardware returns the lease history of one hardware unit.
func (d *DB) LeasesForHardware(ctx context.Context, hardwareID string) ([]*models.Lease, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+leaseColumns+`
		FROM leases WHERE hardware_id = ? ORDER BY rowid`, hardwareID)
	if err != nil {
		return nil, err
	}
	return collectLeases(rows)
}

func collectLeases(rows *sql.Rows) ([]*models.Lease, error) {
	defer rows.Close()

	var leases []*models.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

func scanLease(s scanner) (*models.Lease, error) {
	var l models.Lease
	var start, end, createdAt, updatedAt string
	if err := s.Scan(&l.ID, &l.HardwareID, &start, &end, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if l.Start, err = parseTime("start_at", start); err != nil {
		return nil, err
	}
	if l.End, err = parseTime("end_at", end); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
