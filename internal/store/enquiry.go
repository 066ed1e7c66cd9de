package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nova-jack/novafusion/types"
)

// EnquiryRepository handles persistence for contact enquiries.
type EnquiryRepository struct {
	db *sql.DB
}

func NewEnquiryRepository(db *sql.DB) *EnquiryRepository {
	return &EnquiryRepository{db: db}
}

func (r *EnquiryRepository) List(ctx context.Context, filter types.ListFilter) ([]types.Enquiry, int, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM enquiries WHERE ($1 = '' OR status = $1)`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, email, phone, company, service, budget, message, source, status, created_at, updated_at
		FROM enquiries
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, filter.Status, filter.Offset(), limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	enquiries := make([]types.Enquiry, 0, limit)
	for rows.Next() {
		enquiry, err := scanEnquiry(rows)
		if err != nil {
			return nil, 0, err
		}
		enquiries = append(enquiries, enquiry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return enquiries, total, nil
}

func (r *EnquiryRepository) GetByID(ctx context.Context, id string) (types.Enquiry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Enquiry{}, ErrNotFound
	}
	const query = `
		SELECT id, name, email, phone, company, service, budget, message, source, status, created_at, updated_at
		FROM enquiries
		WHERE id = $1`
	enquiry, err := scanEnquiry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Enquiry{}, ErrNotFound
		}
		return types.Enquiry{}, err
	}
	return enquiry, nil
}

func (r *EnquiryRepository) Create(ctx context.Context, enquiry types.Enquiry) (types.Enquiry, error) {
	now := time.Now().UTC()
	enquiry.ID = uuid.NewString()
	enquiry.CreatedAt = now
	enquiry.UpdatedAt = now

	const query = `
		INSERT INTO enquiries (id, name, email, phone, company, service, budget, message, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		enquiry.ID,
		enquiry.Name,
		enquiry.Email,
		enquiry.Phone,
		enquiry.Company,
		enquiry.Service,
		enquiry.Budget,
		enquiry.Message,
		enquiry.Source,
		enquiry.Status,
		enquiry.CreatedAt,
		enquiry.UpdatedAt,
	); err != nil {
		return types.Enquiry{}, mapError(err)
	}
	return enquiry, nil
}

func (r *EnquiryRepository) UpdateStatus(ctx context.Context, id string, status types.EnquiryStatus) (types.Enquiry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Enquiry{}, ErrNotFound
	}
	const query = `
		UPDATE enquiries
		SET status = $1,
			updated_at = $2
		WHERE id = $3
		RETURNING id, name, email, phone, company, service, budget, message, source, status, created_at, updated_at`
	enquiry, err := scanEnquiry(r.db.QueryRowContext(ctx, query, status, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Enquiry{}, ErrNotFound
		}
		return types.Enquiry{}, err
	}
	return enquiry, nil
}

func (r *EnquiryRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	const query = `DELETE FROM enquiries WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEnquiry(row rowScanner) (types.Enquiry, error) {
	var enquiry types.Enquiry
	err := row.Scan(
		&enquiry.ID,
		&enquiry.Name,
		&enquiry.Email,
		&enquiry.Phone,
		&enquiry.Company,
		&enquiry.Service,
		&enquiry.Budget,
		&enquiry.Message,
		&enquiry.Source,
		&enquiry.Status,
		&enquiry.CreatedAt,
		&enquiry.UpdatedAt,
	)
	return enquiry, err
}
