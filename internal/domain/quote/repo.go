package quote

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo: история смет в Postgres. Смета целиком лежит в payload (jsonb),
// суммы и клиент продублированы колонками для списка.
type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Save(ctx context.Context, q Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO quotes (id, customer_name, phone, address, item_count,
		                    total_amount, labor_amount, material_amount, generated_at, payload)
		VALUES ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8::numeric,$9,$10)
		ON CONFLICT (id) DO NOTHING
	`, q.ID, q.ProjectInfo.CustomerName, q.ProjectInfo.Phone, q.ProjectInfo.Address, len(q.Items),
		q.TotalAmount.String(), q.LaborAmount.String(), q.MaterialAmount.String(), q.GeneratedAt, payload)
	return err
}

// Get возвращает смету по id; nil, nil: если такой нет.
func (r *Repo) Get(ctx context.Context, id string) (*Quote, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM quotes WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// List отдаёт последние сметы, новые сверху.
func (r *Repo) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, customer_name, item_count, total_amount::text, generated_at
		FROM quotes
		ORDER BY generated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s     Summary
			total string
		)
		if err := rows.Scan(&s.ID, &s.CustomerName, &s.ItemCount, &total, &s.GeneratedAt); err != nil {
			return nil, err
		}
		if s.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
