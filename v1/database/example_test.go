package database_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/vecdocs/v1/database"
	"github.com/Aleph-Alpha/vecdocs/v1/postgres"
)

// The PostgreSQL adapter satisfies the interface.
var _ database.Client = database.NewPostgresClient((*postgres.Postgres)(nil))

// Example showing a repository that depends only on the interface
type countRepository struct {
	db database.Client
}

func (r *countRepository) Count(ctx context.Context, namespace string) (int64, error) {
	rows, err := r.db.Execute(ctx, "SELECT count(*) AS count FROM docs WHERE namespace = ?", []any{namespace})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, _ := rows[0]["count"].(int64)
	return n, nil
}

func TestMockClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := database.NewMockClient(ctrl)

	db.EXPECT().
		Execute(gomock.Any(), gomock.Any(), []any{"tenant-a"}).
		Return([]database.Row{{"count": int64(3)}}, nil)

	repo := &countRepository{db: db}
	n, err := repo.Count(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMockClientExecuteMany(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := database.NewMockClient(ctrl)

	sets := [][]any{{"default", "a"}, {"default", "b"}}
	db.EXPECT().ExecuteMany(gomock.Any(), "INSERT INTO docs (namespace, id) VALUES (?, ?)", sets).Return(int64(2), nil)

	n, err := db.ExecuteMany(context.Background(), "INSERT INTO docs (namespace, id) VALUES (?, ?)", sets)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMockClientTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := database.NewMockClient(ctrl)

	gomock.InOrder(
		db.EXPECT().
			Transaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(database.Client) error) error {
				return fn(db)
			}),
		db.EXPECT().Execute(gomock.Any(), "DELETE FROM docs WHERE namespace = ?", []any{"old"}).Return(nil, nil),
	)

	err := db.Transaction(context.Background(), func(tx database.Client) error {
		_, err := tx.Execute(context.Background(), "DELETE FROM docs WHERE namespace = ?", []any{"old"})
		return err
	})
	require.NoError(t, err)
}
