package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mellowboard/internal/models"
)

func newReadRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestParticipantRepositoryListOrdersLeaderboard(t *testing.T) {
	db, mock, cleanup := newReadRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	now := time.Now()
	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM participants WHERE 1=1 AND active = $1") + `\s+` +
		regexp.QuoteMeta("ORDER BY total_points DESC, streak DESC, name ASC")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(participantRowColumns).
			AddRow("p-1", "Jane Doe", "janedoe", true, 80, 4, 1, now, now).
			AddRow("p-2", "Budi", nil, true, 80, 2, 1, now, now))

	participants, err := repo.List(context.Background(), models.ParticipantFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "Jane Doe", participants[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryListWithoutFilter(t *testing.T) {
	db, mock, cleanup := newReadRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM participants WHERE 1=1")).
		WithArgs().
		WillReturnRows(sqlmock.NewRows(participantRowColumns))

	participants, err := repo.List(context.Background(), models.ParticipantFilter{})
	require.NoError(t, err)
	assert.Empty(t, participants)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newReadRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM participants WHERE id = $1")).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(participantRowColumns).AddRow("p-1", "Jane Doe", nil, false, 3, 1, 0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM participants WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	participant, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 3, participant.TotalPoints)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
