package person

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var personColumns = []string{"id", "name", "surname", "pin", "sex", "version"}

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestPostgresFind_WithFilter(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND strpos(lower(name), lower($1)) > 0 AND sex = $2")).
		WithArgs("jo", "MALE").
		WillReturnRows(sqlmock.NewRows(personColumns).
			AddRow(1, "John", "Smith", "11111111111", "MALE", 2).
			AddRow(3, "Johnny", "Nowak", "33333333333", "MALE", 0))
	mock.ExpectQuery("FROM person_email_addresses").WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"person_id", "value"}).
			AddRow(1, "john@x.com").
			AddRow(1, "js@x.com"))
	mock.ExpectQuery("FROM person_phone_numbers").WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"person_id", "value"}).
			AddRow(3, "+48-123456789"))

	male := SexMale
	persons, err := repo.Find(context.Background(), Filter{Name: strPtr("jo"), Sex: &male})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(persons) != 2 {
		t.Fatalf("expected 2 persons, got %d", len(persons))
	}
	if !reflect.DeepEqual(persons[0].EmailAddresses, []string{"john@x.com", "js@x.com"}) || persons[0].Version != 2 {
		t.Fatalf("unexpected first person %+v", persons[0])
	}
	if len(persons[1].EmailAddresses) != 0 || !reflect.DeepEqual(persons[1].PhoneNumbers, []string{"+48-123456789"}) {
		t.Fatalf("unexpected second person %+v", persons[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresFind_NoRowsSkipsCollections(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("FROM person").WillReturnRows(sqlmock.NewRows(personColumns))

	persons, err := repo.Find(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if persons == nil || len(persons) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", persons)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(personColumns).AddRow(1, "John", "Smith", "11111111111", "MALE", 0))
	mock.ExpectQuery("FROM person_email_addresses").WillReturnRows(sqlmock.NewRows([]string{"person_id", "value"}))
	mock.ExpectQuery("FROM person_phone_numbers").WillReturnRows(sqlmock.NewRows([]string{"person_id", "value"}))

	p, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if p.ID != 1 || p.Sex != SexMale || p.EmailAddresses == nil {
		t.Fatalf("unexpected person %+v", p)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(personColumns))
	if _, err := repo.GetByID(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO person (name")).
		WithArgs("John", "Smith", "12345678901", "MALE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "version"}).AddRow(7, 0))
	mock.ExpectExec("INSERT INTO person_email_addresses").
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	p, err := repo.Create(context.Background(), Person{
		Name: "John", Surname: "Smith", PIN: "12345678901", Sex: SexMale,
		EmailAddresses: []string{"b@x.com", "a@x.com"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.ID != 7 || p.Version != 0 {
		t.Fatalf("unexpected person %+v", p)
	}
	if !reflect.DeepEqual(p.EmailAddresses, []string{"a@x.com", "b@x.com"}) {
		t.Fatalf("unexpected emails %v", p.EmailAddresses)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_DuplicatePIN(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO person (name")).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), Person{Name: "John", Surname: "Smith", PIN: "12345678901", Sex: SexMale})
	if !errors.Is(err, ErrDuplicatePIN) {
		t.Fatalf("expected ErrDuplicatePIN, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSave(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE person").
		WithArgs(int64(1), int64(0), "John", "Smith", "12345678901", "MALE").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectExec("INSERT INTO person_phone_numbers").
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := repo.Save(context.Background(), Person{
		ID: 1, Name: "John", Surname: "Smith", PIN: "12345678901", Sex: SexMale,
		PhoneNumbers: []string{"+48-123456789"}, Version: 0,
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if p.Version != 1 {
		t.Fatalf("expected version 1, got %d", p.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSave_StaleVersion(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE person").
		WithArgs(int64(1), int64(3), "John", "Smith", "12345678901", "MALE").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), Person{
		ID: 1, Name: "John", Surname: "Smith", PIN: "12345678901", Sex: SexMale,
		EmailAddresses: []string{"a@x.com"}, Version: 3,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("DELETE FROM person").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	mock.ExpectExec("DELETE FROM person").WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
