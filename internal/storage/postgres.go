package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Close(context.Context) error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS book_positions (
	variant TEXT NOT NULL,
	depth INTEGER NOT NULL,
	board TEXT NOT NULL,
	position INTEGER NOT NULL,
	value INTEGER NOT NULL,
	PRIMARY KEY (variant, depth, board)
);
`)
	return err
}

func (p *PostgresStore) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	var e Entry
	err := p.pool.QueryRow(ctx, `
SELECT position, value
FROM book_positions
WHERE variant = $1 AND depth = $2 AND board = $3`, key.Variant, key.Depth, key.Board).Scan(&e.Position, &e.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (p *PostgresStore) Save(ctx context.Context, key Key, entry Entry) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO book_positions (variant, depth, board, position, value)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (variant, depth, board) DO UPDATE SET position = EXCLUDED.position, value = EXCLUDED.value`,
		key.Variant, key.Depth, key.Board, entry.Position, entry.Value)
	return err
}
