package main

import (
	"context"
	"flag"
	"fmt"

	"crowdfund-client-go/internal/common"
	"crowdfund-client-go/internal/config"
	"crowdfund-client-go/internal/models"
	"crowdfund-client-go/internal/wallet"

	"go.uber.org/zap"
)

func printCollectibles(records []models.CollectibleRecord, network models.NetworkConfig) {
	for i, record := range records {
		isLast := i == len(records)-1
		fmt.Printf("%s %-12s %-7s %10s IOTA  %s\n",
			common.BoxPrefix(isLast),
			record.Name,
			record.Rarity,
			record.ValuationDisplay(),
			network.ObjectLink(record.Id))
	}
}

func main() {
	address := flag.String("address", "", "Account address whose collection to list (required)")
	flag.Parse()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *address == "" {
		logger.Fatal("--address is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Collections are read from the ledger only
	cfg.Journal.Backend = config.JournalNone

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	view := services.NewSynchronizer(wallet.StaticAccount{Address: *address}).Refresh(ctx)

	common.PrintHeader("COLLECTION OF "+common.ShortId(*address), common.DefaultWidth)
	printCollectibles(view.Collectibles, cfg.Network)

	role := "donor"
	if view.IsAdmin() {
		role = "admin (" + common.ShortId(view.AdminCap.Id) + ")"
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d collectibles, role %s", len(view.Collectibles), role), common.DefaultWidth)

	logger.Info("Collection query completed",
		zap.String("address", *address),
		zap.Int("collectibles", len(view.Collectibles)),
		zap.Bool("admin", view.IsAdmin()))
}
