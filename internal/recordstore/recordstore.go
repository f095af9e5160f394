// Package recordstore persists collections of JSON records in sqlite. It is
// the storage contract the services are written against: keyed get/set,
// partial field updates, compare-and-set, and atomic set-membership updates
// for the vote lists.
package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/qwestive/qwestive-api/internal/model"
)

type Store struct {
	db *sqlx.DB
}

func New(dsn string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// sqlite allows one writer at a time; a single pooled connection keeps
	// concurrent callers queued instead of failing with a busy error.
	db.SetMaxOpenConns(1)

	store := &Store{db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return store, nil
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`create table if not exists records(
		collection text not null,
		id         text not null,
		doc        text not null,
		primary key(collection, id)
	)`)
	if err != nil {
		return fmt.Errorf("creating records table: %w", err)
	}

	_, err = s.db.Exec(`create table if not exists record_members(
		collection text not null,
		id         text not null,
		field      text not null,
		value      text not null,
		primary key(collection, id, field, value)
	)`)
	if err != nil {
		return fmt.Errorf("creating record_members table: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the record document with its set-valued fields folded in from
// the membership table.
func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc,
		`select doc from records where collection = ? and id = ?`, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s/%s: %w", collection, id, model.ErrorNotFound)
		}
		return nil, fmt.Errorf("fetching record %s/%s: %w", collection, id, err)
	}

	record := map[string]interface{}{}
	if err := json.Unmarshal([]byte(doc), &record); err != nil {
		return nil, fmt.Errorf("decoding record %s/%s: %w", collection, id, err)
	}

	rows, err := s.db.QueryxContext(ctx,
		`select field, value from record_members
		 where collection = ? and id = ? order by rowid`, collection, id)
	if err != nil {
		return nil, fmt.Errorf("fetching record members %s/%s: %w", collection, id, err)
	}
	defer rows.Close()

	members := map[string][]string{}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scanning record member: %w", err)
		}
		members[field] = append(members[field], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record members: %w", err)
	}
	for field, values := range members {
		record[field] = values
	}

	merged, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding record %s/%s: %w", collection, id, err)
	}
	return merged, nil
}

// Set writes the full document, replacing any previous one along with its
// set-membership rows.
func (s *Store) Set(ctx context.Context, collection, id string, record interface{}) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record %s/%s: %w", collection, id, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning set transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`insert into records(collection, id, doc) values(?, ?, ?)
		 on conflict(collection, id) do update set doc = excluded.doc`,
		collection, id, string(doc))
	if err != nil {
		return fmt.Errorf("writing record %s/%s: %w", collection, id, err)
	}

	_, err = tx.ExecContext(ctx,
		`delete from record_members where collection = ? and id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("clearing record members %s/%s: %w", collection, id, err)
	}

	return tx.Commit()
}

// Update rewrites the named top-level fields of an existing document. It
// never merges nested structures; each field is replaced wholesale.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	args := make([]interface{}, 0, len(names)*2+2)
	for _, name := range names {
		value, err := json.Marshal(fields[name])
		if err != nil {
			return fmt.Errorf("encoding field %s: %w", name, err)
		}
		parts = append(parts, "?, json(?)")
		args = append(args, "$."+name, string(value))
	}
	args = append(args, collection, id)

	query := fmt.Sprintf(
		`update records set doc = json_set(doc, %s) where collection = ? and id = ?`,
		strings.Join(parts, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating record %s/%s: %w", collection, id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("record %s/%s: %w", collection, id, model.ErrorNotFound)
	}
	return nil
}

// CompareAndSwap replaces field with newValue only while it still holds
// oldValue, reporting whether the swap happened. This is the primitive the
// nonce rotation relies on: a losing concurrent verifier sees swapped=false.
func (s *Store) CompareAndSwap(ctx context.Context, collection, id, field string, oldValue, newValue interface{}) (bool, error) {
	value, err := json.Marshal(newValue)
	if err != nil {
		return false, fmt.Errorf("encoding field %s: %w", field, err)
	}

	res, err := s.db.ExecContext(ctx,
		`update records set doc = json_set(doc, ?, json(?))
		 where collection = ? and id = ? and json_extract(doc, ?) = ?`,
		"$."+field, string(value), collection, id, "$."+field, oldValue)
	if err != nil {
		return false, fmt.Errorf("swapping field %s on %s/%s: %w", field, collection, id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rows == 1, nil
}

// UpdateArrays adds and removes set members in one transaction. Adding an
// existing member is a no-op, so retried calls cannot double-add, and
// concurrent callers touching different members all survive.
func (s *Store) UpdateArrays(ctx context.Context, collection, id string, union, remove map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning array update: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`select exists(select 1 from records where collection = ? and id = ?)`, collection, id)
	if err != nil {
		return fmt.Errorf("checking record %s/%s: %w", collection, id, err)
	}
	if !exists {
		return fmt.Errorf("record %s/%s: %w", collection, id, model.ErrorNotFound)
	}

	for _, field := range sortedKeys(union) {
		_, err = tx.ExecContext(ctx,
			`insert or ignore into record_members(collection, id, field, value) values(?, ?, ?, ?)`,
			collection, id, field, union[field])
		if err != nil {
			return fmt.Errorf("adding %s to %s on %s/%s: %w", union[field], field, collection, id, err)
		}
	}
	for _, field := range sortedKeys(remove) {
		_, err = tx.ExecContext(ctx,
			`delete from record_members where collection = ? and id = ? and field = ? and value = ?`,
			collection, id, field, remove[field])
		if err != nil {
			return fmt.Errorf("removing %s from %s on %s/%s: %w", remove[field], field, collection, id, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ArrayUnion(ctx context.Context, collection, id, field, value string) error {
	return s.UpdateArrays(ctx, collection, id, map[string]string{field: value}, nil)
}

func (s *Store) ArrayRemove(ctx context.Context, collection, id, field, value string) error {
	return s.UpdateArrays(ctx, collection, id, nil, map[string]string{field: value})
}

// Query returns the ids of records whose top-level field equals value.
func (s *Store) Query(ctx context.Context, collection, field string, value interface{}) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids,
		`select id from records where collection = ? and json_extract(doc, ?) = ?`,
		collection, "$."+field, value)
	if err != nil {
		return nil, fmt.Errorf("querying %s by %s: %w", collection, field, err)
	}
	return ids, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
