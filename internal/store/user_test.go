package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/common/logger"
	"rentdesk/internal/models"
)

func newUserStore(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db, logger.NewTestLogger(t)), mock
}

func TestCreateManagerUpsertsOnSubjectID(t *testing.T) {
	store, mock := newUserStore(t)

	// a repeated create for the same subject overwrites the contact fields
	// instead of failing on the primary key
	mock.ExpectQuery(`INSERT INTO managers(?s).*ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("mgr-123", "Morgan Leigh", "morgan@rentdesk.example", "+15550002222").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone_number"}).
			AddRow("mgr-123", "Morgan Leigh", "morgan@rentdesk.example", "+15550002222"))

	stored, err := store.CreateManager(context.Background(), models.Manager{
		ID:          "mgr-123",
		Name:        "Morgan Leigh",
		Email:       "morgan@rentdesk.example",
		PhoneNumber: "+15550002222",
	})
	require.NoError(t, err)
	assert.Equal(t, "mgr-123", stored.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTenantUpsertsOnSubjectID(t *testing.T) {
	store, mock := newUserStore(t)

	mock.ExpectQuery(`INSERT INTO tenants(?s).*ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("tenant-1", "Jamie Rivera", "jamie@example.com", "+15550001111").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone_number"}).
			AddRow("tenant-1", "Jamie Rivera", "jamie@example.com", "+15550001111"))

	stored, err := store.CreateTenant(context.Background(), models.Tenant{
		ID:          "tenant-1",
		Name:        "Jamie Rivera",
		Email:       "jamie@example.com",
		PhoneNumber: "+15550001111",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jamie Rivera", stored.Name)

	require.NoError(t, mock.ExpectationsWereMet())
}
