package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// TestApplyMigrations_RunsAgainstMockedDB drives goose's migration runner
// against a sqlmock-backed *sql.DB using loose, unordered regex
// expectations: goose's own version-tracking queries and the embedded
// migration statements are matched permissively rather than expectation by
// expectation, since the exact call sequence is an internal detail of the
// migration runner, not of this package's contract.
func TestApplyMigrations_RunsAgainstMockedDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 20; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(".*").WillReturnRows(sqlmock.NewRows([]string{"version_id", "is_applied"}))
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	err = applyMigrations(context.Background(), db)
	require.NoError(t, err)
}
