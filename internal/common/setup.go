package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"crowdfund-client-go/internal/api"
	"crowdfund-client-go/internal/config"
	"crowdfund-client-go/internal/database"
	"crowdfund-client-go/internal/formance"
	"crowdfund-client-go/internal/iotarpc"
	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/notify"
	"crowdfund-client-go/internal/store"
	"crowdfund-client-go/internal/synchronizer"
	"crowdfund-client-go/internal/tracker"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Config        *models.Config
	Rpc           *iotarpc.Service
	Journal       store.CallJournal
	Notifications *notify.Center
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	rpc, err := iotarpc.NewService(cfg.Network,
		iotarpc.WithFinality(cfg.Tracker.FinalityTimeout, cfg.Tracker.FinalityPollInterval))
	if err != nil {
		return nil, err
	}
	zap.L().Info("Using network",
		zap.String("network", cfg.Network.Name),
		zap.String("rpc_url", cfg.Network.RpcUrl),
		zap.String("fund_id", cfg.Network.FundId))

	journal, err := InitializeJournal(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Services{
		Config:        cfg,
		Rpc:           rpc,
		Journal:       journal,
		Notifications: notify.NewCenter(cfg.Tracker.NotificationTTL),
	}, nil
}

// InitializeJournal opens the call journal selected by JOURNAL_BACKEND
func InitializeJournal(ctx context.Context, cfg *models.Config) (store.CallJournal, error) {
	switch cfg.Journal.Backend {
	case config.JournalNone:
		zap.L().Info("Call journal disabled")
		return store.Discard{}, nil
	case config.JournalFormance:
		zap.L().Info("Journaling calls to Formance ledger", zap.String("stack_url", cfg.Formance.StackURL))
		ledger, err := formance.NewService(ctx, cfg.Formance, cfg.Network.FundId)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	case config.JournalSqlite, "":
		zap.L().Info("Journaling calls to database", zap.String("path", cfg.Database.Path))
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return dbService, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}
}

// NewSynchronizer builds a state synchronizer for the configured fund
func (cs *Services) NewSynchronizer(accounts synchronizer.AccountProvider) *synchronizer.Synchronizer {
	return synchronizer.New(synchronizer.Config{
		PackageId:    cs.Config.Network.PackageId,
		FundId:       cs.Config.Network.FundId,
		PollInterval: cs.Config.Sync.PollInterval,
		PendingTTL:   cs.Config.Sync.PendingTTL,
	}, cs.Rpc, accounts)
}

// NewFundService wires a tracker and synchronizer around the given wallet
// collaborators. The caller starts and stops the returned synchronizer.
func (cs *Services) NewFundService(accounts synchronizer.AccountProvider, signer tracker.Signer) (*api.FundService, *synchronizer.Synchronizer) {
	syncer := cs.NewSynchronizer(accounts)

	calls := tracker.New(tracker.Config{
		PackageId:    cs.Config.Network.PackageId,
		FundId:       cs.Config.Network.FundId,
		RefreshDelay: cs.Config.Sync.RefreshDelay,
	}, signer, cs.Rpc, syncer, cs.Notifications)

	service := api.NewFundService(api.FundServiceConfig{
		Network:       cs.Config.Network,
		Tracker:       calls,
		Synchronizer:  syncer,
		Accounts:      accounts,
		Reader:        cs.Rpc,
		Journal:       cs.Journal,
		Notifications: cs.Notifications,
	})
	return service, syncer
}

func (cs *Services) Close() {
	if cs.Notifications != nil {
		cs.Notifications.Close()
	}
	if cs.Journal != nil {
		cs.Journal.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
