package common

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"crowdfund-client-go/internal/config"
	"crowdfund-client-go/internal/database"
	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) *models.Config {
	return &models.Config{
		Network: models.NetworkConfig{
			Name:      "localnet",
			RpcUrl:    "http://127.0.0.1:9000",
			PackageId: "0xpkg",
			FundId:    "0xfund",
		},
		Tracker: models.TrackerConfig{NotificationTTL: time.Second},
		Journal: models.JournalConfig{Backend: backend},
		Database: models.DatabaseConfig{
			Path:         filepath.Join(t.TempDir(), "calls.db"),
			MaxOpenConns: 1,
			PingTimeout:  time.Second,
		},
	}
}

func TestInitializeJournal(t *testing.T) {
	ctx := context.Background()

	journal, err := InitializeJournal(ctx, testConfig(t, config.JournalNone))
	require.NoError(t, err)
	assert.IsType(t, store.Discard{}, journal)

	journal, err = InitializeJournal(ctx, testConfig(t, config.JournalSqlite))
	require.NoError(t, err)
	defer journal.Close()
	assert.IsType(t, &database.Service{}, journal)

	_, err = InitializeJournal(ctx, testConfig(t, config.JournalFormance))
	assert.ErrorContains(t, err, "FORMANCE_STACK_URL")

	_, err = InitializeJournal(ctx, testConfig(t, "postgres"))
	assert.Error(t, err)
}

func TestInitializeServicesWiresFundService(t *testing.T) {
	services, err := InitializeServices(context.Background(), testConfig(t, config.JournalNone))
	require.NoError(t, err)
	defer services.Close()

	fund, syncer := services.NewFundService(nil, nil)
	defer syncer.Stop()

	assert.Equal(t, "0xfund", fund.Network().FundId)
	assert.False(t, fund.InFlight())
	assert.Empty(t, fund.Notifications())
}
