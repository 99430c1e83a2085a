//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jenkass/reddit-parser/internal/model"
	repo "github.com/jenkass/reddit-parser/internal/repository/postgres"
	"github.com/jenkass/reddit-parser/internal/testutil"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "reddit_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/reddit_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestPostRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Migrations must be safe to apply twice.
	again, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, again.Close())

	r := repo.NewPostRepository(conn)

	_, err = r.GetAll(ctx)
	require.ErrorIs(t, err, model.ErrNoRecords)

	alice := testutil.MakeRecord(testutil.NewPostID(), "alice")
	bob := testutil.MakeRecord(testutil.NewPostID(), "bob")

	n, err := r.Insert(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = r.Insert(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = r.Insert(ctx, alice)
	require.ErrorIs(t, err, model.ErrDuplicateID)

	_, err = r.Insert(ctx, testutil.MakeRecord(alice.ID, "carol"))
	require.ErrorIs(t, err, model.ErrDuplicateID)
	var carols int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE username = 'carol'`).Scan(&carols))
	require.Zero(t, carols)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []model.Record{alice, bob}, all)

	// Re-point alice's post to bob.
	upd := alice
	upd.Username = "bob"
	upd.UserKarma = "42"
	require.NoError(t, r.Update(ctx, alice.ID, upd))

	upd.Username = "nobody"
	require.ErrorIs(t, r.Update(ctx, alice.ID, upd), model.ErrUserNotFound)
	require.ErrorIs(t, r.Update(ctx, testutil.NewPostID(), bob), model.ErrNotFound)

	all, err = r.GetAll(ctx)
	require.NoError(t, err)
	for _, rec := range all {
		require.Equal(t, "bob", rec.Username)
		require.Equal(t, "42", rec.UserKarma)
	}

	require.NoError(t, r.Delete(ctx, alice.ID))
	require.NoError(t, r.Delete(ctx, bob.ID))
	require.ErrorIs(t, r.Delete(ctx, bob.ID), model.ErrNotFound)

	_, err = r.GetAll(ctx)
	require.ErrorIs(t, err, model.ErrNoRecords)
}
