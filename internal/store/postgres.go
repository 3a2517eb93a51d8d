package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const queryPageSize = 250

// PostgresStore keeps every document in a single pk/sk-addressed jsonb table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	item := Item{PK: pk, SK: sk}
	err := s.db.QueryRow(ctx,
		"SELECT payload FROM documents WHERE pk = $1 AND sk = $2", pk, sk,
	).Scan(&item.Payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get document %s/%s: %w", pk, sk, err)
		log.Error(err)
		return Item{}, err
	}
	return item, nil
}

func (s *PostgresStore) Query(ctx context.Context, pk, skPrefix, cursor string) (Page, error) {
	rows, err := s.db.Query(ctx,
		`SELECT sk, payload FROM documents
		 WHERE pk = $1 AND sk LIKE $2 || '%' AND sk > $3
		 ORDER BY sk LIMIT $4`,
		pk, skPrefix, cursor, queryPageSize,
	)
	if err != nil {
		err := fmt.Errorf("could not query documents pk=%s prefix=%s: %w", pk, skPrefix, err)
		log.Error(err)
		return Page{}, err
	}
	defer rows.Close()

	var page Page
	for rows.Next() {
		item := Item{PK: pk}
		if err := rows.Scan(&item.SK, &item.Payload); err != nil {
			err := fmt.Errorf("could not scan document: %w", err)
			log.Error(err)
			return Page{}, err
		}
		page.Items = append(page.Items, item)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over documents: %w", err)
		log.Error(err)
		return Page{}, err
	}

	if len(page.Items) == queryPageSize {
		page.NextCursor = page.Items[len(page.Items)-1].SK
	}
	return page, nil
}

func (s *PostgresStore) Put(ctx context.Context, item Item) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO documents (pk, sk, payload, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (pk, sk) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		item.PK, item.SK, item.Payload,
	)
	if err != nil {
		err := fmt.Errorf("could not put document %s/%s: %w", item.PK, item.SK, err)
		log.Error(err)
		return err
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, pk, sk string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM documents WHERE pk = $1 AND sk = $2", pk, sk)
	if err != nil {
		err := fmt.Errorf("could not delete document %s/%s: %w", pk, sk, err)
		log.Error(err)
		return err
	}
	return nil
}

func (s *PostgresStore) BatchGet(ctx context.Context, keys []Key) ([]Item, error) {
	if len(keys) > MaxBatchKeys {
		return nil, ErrTooManyKeys
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pks := make([]string, 0, len(keys))
	sks := make([]string, 0, len(keys))
	for _, key := range keys {
		pks = append(pks, key.PK)
		sks = append(sks, key.SK)
	}

	rows, err := s.db.Query(ctx,
		`SELECT d.pk, d.sk, d.payload
		 FROM documents d
		 JOIN unnest($1::text[], $2::text[]) AS k(pk, sk) ON d.pk = k.pk AND d.sk = k.sk`,
		pks, sks,
	)
	if err != nil {
		err := fmt.Errorf("could not batch get %d documents: %w", len(keys), err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.PK, &item.SK, &item.Payload); err != nil {
			err := fmt.Errorf("could not scan document: %w", err)
			log.Error(err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over documents: %w", err)
		log.Error(err)
		return nil, err
	}
	return items, nil
}
