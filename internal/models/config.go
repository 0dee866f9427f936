package models

import (
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Network  NetworkConfig
	Sync     SyncConfig
	Tracker  TrackerConfig
	Wallet   WalletConfig
	Journal  JournalConfig
	Database DatabaseConfig
	Formance FormanceConfig
}

// NetworkConfig identifies the ledger network and the deployed package objects
type NetworkConfig struct {
	Name         string        `yaml:"-"`
	RpcUrl       string        `yaml:"rpc_url"`
	ExplorerUrl  string        `yaml:"explorer_url"`
	PackageId    string        `yaml:"package_id"`
	FundId       string        `yaml:"fund_id"`
	AdminCapId   string        `yaml:"admin_cap_id"`
	NetworksFile string        `yaml:"-"`
	RpcTimeout   time.Duration `yaml:"-"`
}

// TransactionLink returns the explorer page of a transaction digest
func (n NetworkConfig) TransactionLink(digest string) string {
	return strings.TrimRight(n.ExplorerUrl, "/") + "/tx/" + digest
}

// ObjectLink returns the explorer page of an object id
func (n NetworkConfig) ObjectLink(objectId string) string {
	return strings.TrimRight(n.ExplorerUrl, "/") + "/object/" + objectId
}

// SyncConfig holds state synchronizer settings
type SyncConfig struct {
	PollInterval time.Duration
	RefreshDelay time.Duration
	PendingTTL   time.Duration
}

// TrackerConfig holds submission and confirmation settings
type TrackerConfig struct {
	FinalityTimeout      time.Duration
	FinalityPollInterval time.Duration
	NotificationTTL      time.Duration
}

// WalletConfig holds wallet bridge settings
type WalletConfig struct {
	ListenAddr     string
	SignTimeout    time.Duration
	ConnectTimeout time.Duration
}

// JournalConfig selects where call history is recorded
type JournalConfig struct {
	Backend string // sqlite, formance or none
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}
