package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/config"
	"github.com/hypertd/hyperhook/internal/infrastructure/exchange"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	symbol := flag.String("symbol", "BTC", "symbol to inspect")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Hyperliquid Interaction...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Exchange.APIURL)

	data := exchange.NewDataClient(cfg.Exchange.APIURL, cfg.Exchange.AccountAddress, zap.NewNop())
	ctx := context.Background()

	// 2. Check Market Context
	mc, err := data.Context(ctx, *symbol)
	if err != nil {
		fmt.Printf("❌ Failed to get market context: %v\n", err)
	} else {
		fmt.Printf("✅ Market Context (%s): Mid=%f, Mark=%f, Oracle=%f\n", mc.Symbol, mc.MidPrice, mc.MarkPrice, mc.OraclePrice)
		fmt.Printf("   Impact Buy=%f, Impact Sell=%f, MaxLev=%d, SzDecimals=%d\n",
			mc.ImpactBuyPrice, mc.ImpactSellPrice, mc.MaxLeverage, mc.SzDecimals)
	}

	// 3. Check All Mids
	mids, err := data.AllMids(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get mids: %v\n", err)
	} else {
		fmt.Printf("✅ Mids for %d symbols\n", len(mids))
		symbols := make([]string, 0, len(mids))
		for s := range mids {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		for i, s := range symbols {
			if i >= 10 {
				break
			}
			fmt.Printf("   %s: %f\n", s, mids[s])
		}
	}

	// 4. Check Account Balance
	if cfg.Exchange.AccountAddress != "" {
		balance, err := data.AvailableBalance(ctx, cfg.Exchange.AccountAddress)
		if err != nil {
			fmt.Printf("❌ Failed to get balance: %v\n", err)
		} else {
			fmt.Printf("✅ Available Balance: %f USDC\n", balance)
		}
	}
}
