package storage

import (
	"context"

	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/libs/db"
)

type BusinessRepository struct {
	pool *db.Pool
}

func NewBusinessRepository(pool *db.Pool) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

func (r *BusinessRepository) Get(ctx context.Context, businessID int64) (model.Business, error) {
	var b model.Business
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(timezone, 'UTC'), COALESCE(tax_rate::text, '0'), is_active, created_at
		FROM businesses
		WHERE id = $1
	`, businessID).Scan(&b.ID, &b.Name, &b.Timezone, &b.TaxRate, &b.IsActive, &b.CreatedAt)
	if err != nil {
		return model.Business{}, err
	}
	return b, nil
}
