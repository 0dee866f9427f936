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
	"errors"
	"fmt"
	"time"

	"crowdfund-client-go/internal/api"
	"crowdfund-client-go/internal/common"
	"crowdfund-client-go/internal/config"
	"crowdfund-client-go/internal/wallet"

	"go.uber.org/zap"
)

func main() {
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

	fund, syncer := services.NewFundService(bridge, bridge)
	defer syncer.Stop()

	// The admin capability is only known after one synchronizer cycle
	view := fund.Refresh(ctx)
	fmt.Printf("Account %s, fund balance %s\n", account.Address, common.FormatIota(view.Fund.BalanceDisplay()))

	call, err := fund.Withdraw(ctx)
	if errors.Is(err, api.ErrNotAdmin) {
		fmt.Println("The connected account does not own the admin capability.")
		return
	}
	if err != nil {
		zap.L().Fatal("Withdrawal could not be started", zap.Error(err))
	}

	fmt.Println("Approve the transaction in your wallet ...")
	record, callErr := call.Wait(ctx)
	for _, note := range fund.Notifications() {
		fmt.Printf("[%s] %s\n", note.Severity, note.Message)
	}
	if callErr != nil {
		zap.L().Error("Withdrawal failed", zap.String("call_id", record.Id), zap.Error(callErr))
		return
	}

	fmt.Printf("Withdrew %s\n", common.FormatIota(record.Amount))
	fmt.Printf("Transaction: %s\n", fund.Network().TransactionLink(record.Digest))
}
