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

	"crowdfund-client-go/internal/common"
	"crowdfund-client-go/internal/config"
	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/store"

	"go.uber.org/zap"
)

func printCall(call models.PendingCall, isLast bool) {
	fmt.Printf("%s %-8s %-10s %12s  %-7s %s  %s\n",
		common.BoxPrefix(isLast),
		call.Kind,
		call.Status,
		call.Amount.StringFixed(2),
		call.TierLabel,
		call.CreatedAt.Format("2006-01-02 15:04:05"),
		common.ShortId(call.Digest))
	if call.Error != "" {
		fmt.Printf("   error: %s\n", call.Error)
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	kindFlag := flag.String("kind", "", "Filter by call kind: donate or withdraw (optional)")
	senderFlag := flag.String("sender", "", "Filter by sender address (optional)")
	limitFlag := flag.Int("limit", store.DefaultRecentLimit, "Maximum number of calls to show")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	journal, err := common.InitializeJournal(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open call journal", zap.Error(err))
	}
	defer journal.Close()

	calls, err := journal.RecentCalls(ctx, store.RecentCallsParams{
		Kind:   models.CallKind(*kindFlag),
		Sender: *senderFlag,
		Limit:  *limitFlag,
	})
	if err != nil {
		logger.Fatal("Failed to read call history", zap.Error(err))
	}

	common.PrintHeader("CALL HISTORY ("+cfg.Journal.Backend+")", common.WideWidth)
	for i, call := range calls {
		printCall(call, i == len(calls)-1)
	}

	confirmed := 0
	for _, call := range calls {
		if call.Status == models.CallConfirmed {
			confirmed++
		}
	}
	summary := fmt.Sprintf("SUMMARY: %d calls, %d confirmed", len(calls), confirmed)
	if ledger, ok := journal.(store.FundLedger); ok {
		fund, err := ledger.FundTotals(ctx)
		if err != nil {
			logger.Warn("Failed to read journaled fund totals", zap.Error(err))
		} else {
			summary += fmt.Sprintf(", journaled fund %s raised / %s balance",
				common.FormatIota(fund.TotalRaisedDisplay()),
				common.FormatIota(fund.BalanceDisplay()))
		}
	}
	common.PrintFooter(summary, common.WideWidth)
}
