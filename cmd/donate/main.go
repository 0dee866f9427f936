package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"crowdfund-client-go/internal/common"
	"crowdfund-client-go/internal/config"
	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/wallet"

	"go.uber.org/zap"
)

func printOutcome(call models.PendingCall, callErr error, network models.NetworkConfig, notes []models.Notification) {
	for _, note := range notes {
		fmt.Printf("[%s] %s\n", note.Severity, note.Message)
	}
	if callErr != nil {
		fmt.Printf("Call %s failed: %v\n", call.Id, callErr)
		return
	}
	fmt.Printf("Donated %s, reward tier %s\n", common.FormatIota(call.Amount), call.TierLabel)
	fmt.Printf("Transaction: %s\n", network.TransactionLink(call.Digest))
}

func main() {
	amount := flag.String("amount", "", "Amount of IOTA to donate, e.g. 12.5 (required)")
	flag.Parse()

	if *amount == "" {
		fmt.Println("--amount is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	bridge := wallet.NewBridge(cfg.Wallet)
	if err := bridge.Start(); err != nil {
		zap.L().Fatal("Failed to start wallet bridge", zap.Error(err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = bridge.Stop(stopCtx)
	}()

	fmt.Printf("Waiting for a wallet agent on ws://%s/wallet ...\n", cfg.Wallet.ListenAddr)
	account, err := bridge.WaitForAccount(ctx)
	if err != nil {
		zap.L().Fatal("No wallet account connected", zap.Error(err))
	}
	fmt.Printf("Connected account %s\n", account.Address)

	fund, syncer := services.NewFundService(bridge, bridge)
	syncer.Start(ctx)
	defer syncer.Stop()

	call, err := fund.Donate(ctx, *amount)
	if err != nil {
		zap.L().Fatal("Donation could not be started", zap.Error(err))
	}

	fmt.Println("Approve the transaction in your wallet ...")
	record, callErr := call.Wait(ctx)
	printOutcome(record, callErr, fund.Network(), fund.Notifications())

	if callErr == nil {
		view := fund.Refresh(ctx)
		fmt.Printf("Fund total raised: %s\n", common.FormatIota(view.Fund.TotalRaisedDisplay()))
	}
}
