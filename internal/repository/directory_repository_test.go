package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestDirectoryRepositorySubjectsForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	rows := sqlmock.NewRows([]string{"code", "name"}).
		AddRow("CS101", "Data Structures").
		AddRow("MA102", "Linear Algebra")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	subjects, err := repo.SubjectsForStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.Equal(t, "CS101", subjects[0].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepositoryTeaches(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty_subjects WHERE faculty_id = $1 AND subject_code = $2")).
		WithArgs("f1", "CS101").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	teaches, err := repo.Teaches(context.Background(), "f1", "CS101")
	require.NoError(t, err)
	require.True(t, teaches)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepositorySubjectByCodeMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE code = $1")).
		WithArgs("XX999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.SubjectByCode(context.Background(), "XX999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
