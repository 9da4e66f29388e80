package postgres

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formsink/formsink/internal/metrics"
	tdomain "github.com/formsink/formsink/internal/tenants/domain"
)

const defaultPort = 5432

// DSN builds a connection string from a tenant's database section.
func DSN(db tdomain.DatabaseConfig) string {
	port := db.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(db.Username),
		url.QueryEscape(db.Password),
		db.Host,
		port,
		url.PathEscape(db.Name),
	)
}

// Pools hands out one pgx pool per distinct tenant DSN. Pools are created
// lazily and kept for the process lifetime.
type Pools struct {
	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

func NewPools() *Pools {
	return &Pools{pools: make(map[string]*pgxpool.Pool)}
}

// Get returns the pool for a tenant database, dialing it on first use.
func (p *Pools) Get(ctx context.Context, db tdomain.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := DSN(db)

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok := p.pools[dsn]; ok {
		return pool, nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("tenant database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("tenant database connect: %w", err)
	}
	p.pools[dsn] = pool
	metrics.SetTenantPools(len(p.pools))
	return pool, nil
}

// Close closes every held pool.
func (p *Pools) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for dsn, pool := range p.pools {
		pool.Close()
		delete(p.pools, dsn)
	}
	metrics.SetTenantPools(0)
}
