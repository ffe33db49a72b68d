package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository stores persons in three tables:
//   person(id, name, surname, pin, sex, version)
//   person_email_addresses(person_id, email_address)
//   person_phone_numbers(person_id, phone_number)
// The collection tables cascade on delete.
type PostgresRepository struct {
	db *sqlx.DB
}

var _ Repository = (*PostgresRepository)(nil)

const uniqueViolation = "23505"

const (
	selectPersonsQuery = `
		SELECT id, name, surname, pin, sex, version
		FROM person
		WHERE 1=1`
	getPersonByIDQuery = `
		SELECT id, name, surname, pin, sex, version
		FROM person
		WHERE id = $1
	`
	selectEmailAddressesQuery = `
		SELECT person_id, email_address AS value
		FROM person_email_addresses
		WHERE person_id = ANY($1::bigint[])
		ORDER BY person_id, email_address
	`
	selectPhoneNumbersQuery = `
		SELECT person_id, phone_number AS value
		FROM person_phone_numbers
		WHERE person_id = ANY($1::bigint[])
		ORDER BY person_id, phone_number
	`
	insertPersonQuery = `
		INSERT INTO person (name, surname, pin, sex, version)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, version
	`
	updatePersonQuery = `
		UPDATE person
		SET name = $3, surname = $4, pin = $5, sex = $6, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`
	insertEmailAddressesQuery = `
		INSERT INTO person_email_addresses (person_id, email_address)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
	`
	insertPhoneNumbersQuery = `
		INSERT INTO person_phone_numbers (person_id, phone_number)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
	`
	deletePersonQuery = `DELETE FROM person WHERE id = $1`
)

type personRow struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Surname string `db:"surname"`
	PIN     string `db:"pin"`
	Sex     string `db:"sex"`
	Version int    `db:"version"`
}

type valueRow struct {
	PersonID int64  `db:"person_id"`
	Value    string `db:"value"`
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Find(ctx context.Context, f Filter) ([]Person, error) {
	where, args := f.where()
	q := selectPersonsQuery + where + "\n\t\tORDER BY id"

	var rows []personRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select persons: %w", err)
	}
	return r.withCollections(ctx, rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (Person, error) {
	var row personRow
	if err := r.db.GetContext(ctx, &row, getPersonByIDQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Person{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return Person{}, fmt.Errorf("get person %d: %w", id, err)
	}
	out, err := r.withCollections(ctx, []personRow{row})
	if err != nil {
		return Person{}, err
	}
	return out[0], nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Person) (created Person, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Person{}, fmt.Errorf("begin create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	p = p.clone()
	if err = tx.QueryRowxContext(ctx, insertPersonQuery, p.Name, p.Surname, p.PIN, string(p.Sex)).Scan(&p.ID, &p.Version); err != nil {
		return Person{}, translateWriteError(err, p.PIN)
	}
	p.EmailAddresses = mergeSet(nil, p.EmailAddresses...)
	p.PhoneNumbers = mergeSet(nil, p.PhoneNumbers...)
	if err = insertCollections(ctx, tx, p); err != nil {
		return Person{}, err
	}
	if err = tx.Commit(); err != nil {
		return Person{}, fmt.Errorf("commit create: %w", err)
	}
	return p, nil
}

// Save only ever adds collection values; the update and the inserts share one
// transaction so a version conflict leaves no partial rows behind.
func (r *PostgresRepository) Save(ctx context.Context, p Person) (saved Person, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Person{}, fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	p = p.clone()
	var version int
	err = tx.QueryRowxContext(ctx, updatePersonQuery, p.ID, p.Version, p.Name, p.Surname, p.PIN, string(p.Sex)).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Person{}, fmt.Errorf("%w: id %d version %d", ErrConflict, p.ID, p.Version)
		}
		return Person{}, translateWriteError(err, p.PIN)
	}
	p.Version = version
	p.EmailAddresses = mergeSet(nil, p.EmailAddresses...)
	p.PhoneNumbers = mergeSet(nil, p.PhoneNumbers...)
	if err = insertCollections(ctx, tx, p); err != nil {
		return Person{}, err
	}
	if err = tx.Commit(); err != nil {
		return Person{}, fmt.Errorf("commit save: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deletePersonQuery, id)
	if err != nil {
		return fmt.Errorf("delete person %d: %w", id, err)
	}
	cnt, _ := res.RowsAffected()
	if cnt == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func insertCollections(ctx context.Context, tx *sqlx.Tx, p Person) error {
	if len(p.EmailAddresses) > 0 {
		if _, err := tx.ExecContext(ctx, insertEmailAddressesQuery, p.ID, pq.Array(p.EmailAddresses)); err != nil {
			return fmt.Errorf("insert email addresses: %w", err)
		}
	}
	if len(p.PhoneNumbers) > 0 {
		if _, err := tx.ExecContext(ctx, insertPhoneNumbersQuery, p.ID, pq.Array(p.PhoneNumbers)); err != nil {
			return fmt.Errorf("insert phone numbers: %w", err)
		}
	}
	return nil
}

// withCollections loads both set tables for all rows with one query each.
func (r *PostgresRepository) withCollections(ctx context.Context, rows []personRow) ([]Person, error) {
	out := make([]Person, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var emails, phones []valueRow
	if err := r.db.SelectContext(ctx, &emails, selectEmailAddressesQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select email addresses: %w", err)
	}
	if err := r.db.SelectContext(ctx, &phones, selectPhoneNumbersQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select phone numbers: %w", err)
	}

	emailsByID := groupValues(emails)
	phonesByID := groupValues(phones)
	for _, row := range rows {
		out = append(out, Person{
			ID:             row.ID,
			Name:           row.Name,
			Surname:        row.Surname,
			PIN:            row.PIN,
			Sex:            Sex(row.Sex),
			EmailAddresses: mergeSet(nil, emailsByID[row.ID]...),
			PhoneNumbers:   mergeSet(nil, phonesByID[row.ID]...),
			Version:        row.Version,
		})
	}
	return out, nil
}

func groupValues(rows []valueRow) map[int64][]string {
	out := make(map[int64][]string)
	for _, v := range rows {
		out[v.PersonID] = append(out[v.PersonID], v.Value)
	}
	return out
}

func translateWriteError(err error, pin string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicatePIN, pin)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicatePIN, pin)
	}
	return fmt.Errorf("write person: %w", err)
}
