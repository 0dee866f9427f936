/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"crowdfund-client-go/internal/models"
)

// Journal backends accepted by JOURNAL_BACKEND
const (
	JournalSqlite   = "sqlite"
	JournalFormance = "formance"
	JournalNone     = "none"
)

func Load() (*models.Config, error) {
	network, err := loadNetwork()
	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("SYNC_POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	refreshDelay, err := getEnvDuration("SYNC_REFRESH_DELAY", time.Second)
	if err != nil {
		return nil, err
	}

	pendingTTL, err := getEnvDuration("SYNC_PENDING_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	finalityTimeout, err := getEnvDuration("FINALITY_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	finalityPoll, err := getEnvDuration("FINALITY_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, err
	}

	notificationTTL, err := getEnvDuration("NOTIFICATION_TTL", 8*time.Second)
	if err != nil {
		return nil, err
	}

	signTimeout, err := getEnvDuration("WALLET_SIGN_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	connectTimeout, err := getEnvDuration("WALLET_CONNECT_TIMEOUT", time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvString("JOURNAL_BACKEND", JournalSqlite))
	switch backend {
	case JournalSqlite, JournalFormance, JournalNone:
	default:
		return nil, fmt.Errorf("invalid JOURNAL_BACKEND %q: expected sqlite, formance or none", backend)
	}

	return &models.Config{
		Network: network,
		Sync: models.SyncConfig{
			PollInterval: pollInterval,
			RefreshDelay: refreshDelay,
			PendingTTL:   pendingTTL,
		},
		Tracker: models.TrackerConfig{
			FinalityTimeout:      finalityTimeout,
			FinalityPollInterval: finalityPoll,
			NotificationTTL:      notificationTTL,
		},
		Wallet: models.WalletConfig{
			ListenAddr:     getEnvString("WALLET_BRIDGE_ADDR", "127.0.0.1:8765"),
			SignTimeout:    signTimeout,
			ConnectTimeout: connectTimeout,
		},
		Journal: models.JournalConfig{
			Backend: backend,
		},
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "calls.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER_NAME", ""),
		},
	}, nil
}

// loadNetwork resolves the active network from the networks file or the
// built-in table, then applies the IOTA_* overrides.
func loadNetwork() (models.NetworkConfig, error) {
	rpcTimeout, err := getEnvDuration("RPC_TIMEOUT", 30*time.Second)
	if err != nil {
		return models.NetworkConfig{}, err
	}

	name := getEnvString("IOTA_NETWORK", DefaultNetwork)
	file := getEnvString("NETWORKS_FILE", "")

	networks := BuiltinNetworks()
	if file != "" {
		networks, err = LoadNetworks(file)
		if err != nil {
			return models.NetworkConfig{}, err
		}
	}

	network := networks[name]
	network.Name = name
	network.NetworksFile = file
	network.RpcTimeout = rpcTimeout

	network.RpcUrl = getEnvString("IOTA_RPC_URL", network.RpcUrl)
	network.ExplorerUrl = getEnvString("IOTA_EXPLORER_URL", network.ExplorerUrl)
	network.PackageId = getEnvString("IOTA_PACKAGE_ID", network.PackageId)
	network.FundId = getEnvString("IOTA_FUND_ID", network.FundId)
	network.AdminCapId = getEnvString("IOTA_ADMIN_CAP_ID", network.AdminCapId)

	if err := validateNetwork(network); err != nil {
		return models.NetworkConfig{}, err
	}
	return network, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
