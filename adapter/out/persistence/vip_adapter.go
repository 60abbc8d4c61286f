package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"mailagent/core/domain"
)

// VIPAdapter implements out.VIPRepository using PostgreSQL.
type VIPAdapter struct {
	db *sqlx.DB
}

func NewVIPAdapter(db *sqlx.DB) *VIPAdapter {
	return &VIPAdapter{db: db}
}

type vipRow struct {
	Email         string    `db:"email"`
	Name          string    `db:"name"`
	PriorityLevel string    `db:"priority_level"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *vipRow) toEntity() *domain.VIPContact {
	return &domain.VIPContact{
		Email:         r.Email,
		Name:          r.Name,
		PriorityLevel: prioritized(r.PriorityLevel),
	}
}

func (a *VIPAdapter) List(ctx context.Context) ([]*domain.VIPContact, error) {
	var rows []vipRow
	query := `SELECT email, name, priority_level, created_at, updated_at
		FROM vip_contacts ORDER BY email`
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	contacts := make([]*domain.VIPContact, len(rows))
	for i := range rows {
		contacts[i] = rows[i].toEntity()
	}
	return contacts, nil
}

func (a *VIPAdapter) GetByEmail(ctx context.Context, email string) (*domain.VIPContact, error) {
	var row vipRow
	query := `SELECT email, name, priority_level, created_at, updated_at
		FROM vip_contacts WHERE email = $1`
	if err := a.db.GetContext(ctx, &row, query, email); err != nil {
		return nil, mapDBError(err, "vip contact")
	}
	return row.toEntity(), nil
}

func (a *VIPAdapter) Upsert(ctx context.Context, contact *domain.VIPContact) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO vip_contacts (email, name, priority_level, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			priority_level = EXCLUDED.priority_level,
			updated_at = NOW()`,
		contact.Email, contact.Name, string(contact.PriorityLevel))
	return err
}

func (a *VIPAdapter) Remove(ctx context.Context, email string) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM vip_contacts WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return mapNoRows("vip contact")
	}
	return nil
}
