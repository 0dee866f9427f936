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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdfund-client-go/internal/common"
	"crowdfund-client-go/internal/config"
	"crowdfund-client-go/internal/synchronizer"
	"crowdfund-client-go/internal/wallet"

	"go.uber.org/zap"
)

func printView(view synchronizer.View, explorer func(string) string) {
	common.PrintHeader("CROWDFUND DASHBOARD", common.DefaultWidth)
	fmt.Printf("Fund balance:   %s\n", common.FormatIota(view.Fund.BalanceDisplay()))
	fmt.Printf("Total raised:   %s\n", common.FormatIota(view.Fund.TotalRaisedDisplay()))
	fmt.Printf("Cats rescued:   %d / %d\n", view.RescuedCount(), synchronizer.RescueGoal)
	fmt.Printf("Progress:       %s\n", common.ProgressBar(view.Progress()))

	if view.Connected {
		fmt.Printf("Account:        %s\n", view.Account.Address)
		if view.IsAdmin() {
			fmt.Printf("Admin cap:      %s\n", view.AdminCap.Id)
		}
		fmt.Printf("Collectibles:   %d\n", len(view.Collectibles))
	} else {
		fmt.Println("Account:        not connected")
	}

	if len(view.Pending) > 0 {
		common.PrintSection(fmt.Sprintf("Pending calls (%d)", len(view.Pending)), 78)
		for i, call := range view.Pending {
			fmt.Printf("%s %-8s %-10s %12s  %s\n",
				common.BoxPrefix(i == len(view.Pending)-1),
				call.Kind,
				call.Status,
				call.Amount.StringFixed(2),
				common.ShortId(call.Digest))
		}
	}

	if len(view.Recent) > 0 {
		common.PrintSection("Recent donations", 78)
		for i, d := range view.Recent {
			fmt.Printf("%s %-6s %12s  %-10s %s\n",
				common.BoxPrefix(i == len(view.Recent)-1),
				d.User,
				d.Amount.StringFixed(2),
				d.Collectible,
				explorer(d.Digest))
		}
	}
	fmt.Printf("\nUpdated %s\n", view.CompletedAt.Format("15:04:05"))
}

func main() {
	address := flag.String("address", "", "Account address to follow (optional, read-only)")
	useWallet := flag.Bool("wallet", false, "Follow the account connected through the wallet bridge")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting crowdfund dashboard", zap.String("network", cfg.Network.Name))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	var accounts synchronizer.AccountProvider = wallet.StaticAccount{Address: *address}
	if *useWallet {
		bridge := wallet.NewBridge(cfg.Wallet)
		if err := bridge.Start(); err != nil {
			zap.L().Fatal("Failed to start wallet bridge", zap.Error(err))
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			_ = bridge.Stop(stopCtx)
		}()
		accounts = bridge
	}

	syncer := services.NewSynchronizer(accounts)
	syncer.OnUpdate(func(view synchronizer.View) {
		printView(view, cfg.Network.TransactionLink)
	})
	syncer.Start(ctx)
	defer syncer.Stop()

	zap.L().Info("Dashboard running, press Ctrl+C to stop",
		zap.Duration("poll_interval", cfg.Sync.PollInterval))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping dashboard")
}
