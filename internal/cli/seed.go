//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pgEdge/pgedge-vendorsummary/internal/datagen"
	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
)

var (
	seedVendors      int
	seedBrands       int
	seedPurchases    int
	seedSales        int
	seedInvoices     int
	seedSeed         uint64
	seedDropExisting bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a synthetic inventory dataset",
	Long: `Create the purchases, purchase_prices, sales and vendor_invoice tables and
fill them with generated data. Existing tables are only replaced when
--drop-existing is given.

Example:
  pgedge-vendorsummary seed
  pgedge-vendorsummary seed --vendors 50 --brands 1000 --purchases 100000 --seed 42
  pgedge-vendorsummary seed --drop-existing`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedVendors, "vendors", 0,
		"number of vendors (default: 20)")
	seedCmd.Flags().IntVar(&seedBrands, "brands", 0,
		"number of brands (default: 200)")
	seedCmd.Flags().IntVar(&seedPurchases, "purchases", 0,
		"number of purchase lines (default: 10000)")
	seedCmd.Flags().IntVar(&seedSales, "sales", 0,
		"number of sales lines (default: 20000)")
	seedCmd.Flags().IntVar(&seedInvoices, "invoices", 0,
		"number of vendor invoices (default: 500)")
	seedCmd.Flags().Uint64Var(&seedSeed, "seed", 0,
		"random seed for reproducible data (0 = random)")
	seedCmd.Flags().BoolVar(&seedDropExisting, "drop-existing", false,
		"replace existing inventory tables")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedVendors > 0 {
		cfg.Seed.Vendors = seedVendors
	}
	if seedBrands > 0 {
		cfg.Seed.Brands = seedBrands
	}
	if seedPurchases > 0 {
		cfg.Seed.Purchases = seedPurchases
	}
	if seedSales > 0 {
		cfg.Seed.Sales = seedSales
	}
	if seedInvoices > 0 {
		cfg.Seed.Invoices = seedInvoices
	}
	if seedSeed != 0 {
		cfg.Seed.Seed = seedSeed
	}
	if seedDropExisting {
		cfg.Seed.DropExisting = true
	}

	// Validate configuration
	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	// Refuse to overwrite an existing inventory unless asked to
	existing, err := datagen.ExistingTables(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to check existing tables: %w", err)
	}
	if len(existing) > 0 {
		if !cfg.Seed.DropExisting {
			return fmt.Errorf(
				"database already contains %s; use --drop-existing to replace them",
				strings.Join(existing, ", "))
		}
		logger.Warn().
			Strs("tables", existing).
			Msg("Dropping existing inventory tables")
		if err := datagen.DropSchema(ctx, store); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	genCfg := datagen.DefaultGeneratorConfig()
	genCfg.Vendors = cfg.Seed.Vendors
	genCfg.Brands = cfg.Seed.Brands
	genCfg.Purchases = cfg.Seed.Purchases
	genCfg.Sales = cfg.Seed.Sales
	genCfg.Invoices = cfg.Seed.Invoices
	genCfg.Seed = cfg.Seed.Seed
	genCfg.BatchSize = cfg.Run.BatchSize

	start := time.Now()
	stats, err := datagen.NewInventoryGenerator(genCfg, logger).Generate(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to generate data: %w", err)
	}

	if err := db.SaveMetadata(ctx, store, map[string]string{
		"seeded_at":   time.Now().UTC().Format(time.RFC3339),
		"seed":        strconv.FormatUint(cfg.Seed.Seed, 10),
		"seed_brands": strconv.Itoa(stats.Brands),
	}); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logger.Info().
		Int("vendors", stats.Vendors).
		Int("brands", stats.Brands).
		Int64("purchases", stats.Purchases).
		Int64("sales", stats.Sales).
		Int64("invoices", stats.Invoices).
		Dur("duration", time.Since(start)).
		Msg("Inventory generation complete")

	p := message.NewPrinter(language.English)
	p.Fprintf(cmd.OutOrStdout(), "Generated %d purchases, %d sales and %d invoices for %d brands\n",
		stats.Purchases, stats.Sales, stats.Invoices, stats.Brands)
	return nil
}
