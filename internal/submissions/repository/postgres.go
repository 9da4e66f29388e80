package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formsink/formsink/internal/platform/postgres"
	"github.com/formsink/formsink/internal/submissions/domain"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

// Ensure Postgres implements domain.Repository
var _ domain.Repository = (*Postgres)(nil)

// Postgres stores submissions in one tenant's database. All filter values are
// bound parameters; nothing is interpolated into SQL text.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func (r *Postgres) SaveSubmission(ctx context.Context, fields *domain.FormData, formName string) (int64, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("encode form data: %w", err)
	}
	meta := domain.RequestMetaFrom(ctx)

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO submissions (form_name, form_data, sender_ip, user_agent, referer_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		formName, data, nullText(meta.SenderIP), nullText(meta.UserAgent), nullText(meta.RefererURL),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

const submissionColumns = `id, form_name, form_data, sender_ip, user_agent, referer_url, created_at`

func (r *Postgres) GetSubmissions(ctx context.Context, limit, offset int, formName string) ([]domain.Submission, error) {
	var rows pgx.Rows
	var err error
	if formName != "" {
		rows, err = r.pool.Query(ctx,
			`SELECT `+submissionColumns+` FROM submissions
			 WHERE form_name = $1
			 ORDER BY created_at DESC
			 LIMIT $2 OFFSET $3`,
			formName, limit, offset)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+submissionColumns+` FROM submissions
			 ORDER BY created_at DESC
			 LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *Postgres) GetSubmission(ctx context.Context, id int64) (*domain.Submission, bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	if err != nil {
		return nil, false, fmt.Errorf("query submission: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, err
		}
		return nil, false, nil
	}
	sub, err := scanSubmission(rows)
	if err != nil {
		return nil, false, err
	}
	return &sub, true, nil
}

func (r *Postgres) CountSubmissions(ctx context.Context, formName string) (int64, error) {
	var n int64
	var err error
	if formName != "" {
		err = r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM submissions WHERE form_name = $1`, formName).Scan(&n)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func (r *Postgres) ListFormNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT form_name FROM submissions ORDER BY form_name`)
	if err != nil {
		return nil, fmt.Errorf("list form names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanSubmission(rows pgx.Rows) (domain.Submission, error) {
	var (
		sub       domain.Submission
		data      []byte
		ip, ua    pgtype.Text
		referer   pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := rows.Scan(&sub.ID, &sub.FormName, &data, &ip, &ua, &referer, &createdAt); err != nil {
		return domain.Submission{}, fmt.Errorf("scan submission: %w", err)
	}
	fields := domain.NewFormData()
	if err := json.Unmarshal(data, fields); err != nil {
		return domain.Submission{}, fmt.Errorf("decode form data: %w", err)
	}
	sub.FormData = fields
	sub.SenderIP = ip.String
	sub.UserAgent = ua.String
	sub.RefererURL = referer.String
	if createdAt.Valid {
		sub.CreatedAt = createdAt.Time
	}
	return sub, nil
}

// Ensure Provider implements domain.RepositoryProvider
var _ domain.RepositoryProvider = (*Provider)(nil)

// Provider resolves the repository backed by a tenant's own database, dialing
// pools lazily through the shared pool manager.
type Provider struct {
	pools *postgres.Pools
}

func NewProvider(pools *postgres.Pools) *Provider {
	return &Provider{pools: pools}
}

func (p *Provider) For(ctx context.Context, cfg *tdomain.TenantConfig) (domain.Repository, error) {
	pool, err := p.pools.Get(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}
