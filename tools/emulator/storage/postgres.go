package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/lib/pq" // driver postgres
	"github.com/raywall/deta-toolkit/pkg/config"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Postgres guarda os itens numa tabela (ns, key, body jsonb). O corpo vai
// como texto: o lib/pq envia []byte como bytea.
type Postgres struct {
	db    *sql.DB
	table string
}

// NewPostgres abre a conexão e cria a tabela se ela não existir.
func NewPostgres(ctx context.Context, cfg config.PostgresConf) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("storage: erro ao abrir conexão SQL: %w", err)
	}
	p, err := NewPostgresWithDB(ctx, db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresWithDB usa uma conexão já aberta.
func NewPostgresWithDB(ctx context.Context, db *sql.DB, table string) (*Postgres, error) {
	if table == "" {
		table = "deta_items"
	}
	// o nome é interpolado em todas as queries
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("storage: nome de tabela inválido %q", table)
	}

	p := &Postgres{db: db, table: table}
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		ns   TEXT  NOT NULL,
		key  TEXT  NOT NULL,
		body JSONB NOT NULL,
		PRIMARY KEY (ns, key)
	)`)
	if err != nil {
		return nil, fmt.Errorf("storage: create table %s: %w", table, err)
	}
	return p, nil
}

func (p *Postgres) Get(ctx context.Context, ns, key string) (Item, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT body FROM `+p.table+` WHERE ns = $1 AND key = $2`, ns, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: postgres get: %w", err)
	}
	return decode(raw)
}

func (p *Postgres) PutMany(ctx context.Context, ns string, items []Item) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: postgres begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+p.table+` (ns, key, body) VALUES ($1, $2, $3)
		ON CONFLICT (ns, key) DO UPDATE SET body = EXCLUDED.body`)
	if err != nil {
		return fmt.Errorf("storage: postgres prepare: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		b, err := encode(item)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, ns, KeyOf(item), string(b)); err != nil {
			return fmt.Errorf("storage: postgres put: %w", err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) Insert(ctx context.Context, ns string, item Item) error {
	b, err := encode(item)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `INSERT INTO `+p.table+` (ns, key, body) VALUES ($1, $2, $3)
		ON CONFLICT (ns, key) DO NOTHING`, ns, KeyOf(item), string(b))
	if err != nil {
		return fmt.Errorf("storage: postgres insert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

// Update trava a linha com SELECT ... FOR UPDATE durante a transação.
func (p *Postgres) Update(ctx context.Context, ns, key string, fn func(Item) error) (Item, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: postgres begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM `+p.table+` WHERE ns = $1 AND key = $2 FOR UPDATE`, ns, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: postgres get: %w", err)
	}

	item, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	b, err := encode(item)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE `+p.table+` SET body = $3 WHERE ns = $1 AND key = $2`, ns, key, string(b)); err != nil {
		return nil, fmt.Errorf("storage: postgres update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: postgres commit: %w", err)
	}
	return item, nil
}

func (p *Postgres) Delete(ctx context.Context, ns, key string) error {
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM `+p.table+` WHERE ns = $1 AND key = $2`, ns, key); err != nil {
		return fmt.Errorf("storage: postgres delete: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
