//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

const dateLayout = "2006-01-02"

// GeneratorConfig configures synthetic inventory generation.
type GeneratorConfig struct {
	Vendors   int
	Brands    int
	Purchases int
	Sales     int
	Invoices  int

	// Seed fixes the random sequence; 0 picks a time-based seed.
	Seed uint64

	// BatchSize is the number of rows per insert batch.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultGeneratorConfig returns a small but realistic dataset.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Vendors:          20,
		Brands:           200,
		Purchases:        10000,
		Sales:            20000,
		Invoices:         500,
		BatchSize:        5000,
		ProgressInterval: 10000,
	}
}

// Stats reports how many rows were generated per table.
type Stats struct {
	Vendors   int
	Brands    int
	Purchases int64
	Sales     int64
	Invoices  int64
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	log              *logging.Logger
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(log *logging.Logger, tableName string, totalRows int64, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = 1
	}
	return &ProgressReporter{
		log:              log,
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Report records the running total after a batch and logs when a progress
// interval is crossed. It matches db.BatchFunc.
func (p *ProgressReporter) Report(batch int, total int64) {
	old := p.currentRow
	p.currentRow = total

	if p.currentRow/p.progressInterval > old/p.progressInterval {
		pct := float64(p.currentRow) / float64(max(p.totalRows, 1)) * 100
		p.log.Info().
			Str("table", p.tableName).
			Int("batch", batch).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	p.log.Info().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}

type vendor struct {
	number int64
	name   string
}

type brand struct {
	id             int64
	vendor         vendor
	description    string
	size           string
	volume         string
	liters         float64
	price          float64
	cost           float64
	classification int64
}

var (
	bottleSizes   = []string{"750mL", "1.75L", "1L", "375mL", "50mL", "Unknown"}
	sizeWeights   = []int{45, 20, 15, 10, 8, 2}
	bottleVolumes = map[string]float64{
		"750mL": 750, "1.75L": 1750, "1L": 1000, "375mL": 375, "50mL": 50,
	}
)

// InventoryGenerator fills the four source tables with a coherent dataset:
// every purchase and sale references a known brand and vendor, some brands
// never sell, a few have a zero purchase price, and some vendor names carry
// trailing padding.
type InventoryGenerator struct {
	faker *Faker
	cfg   GeneratorConfig
	log   *logging.Logger
}

// NewInventoryGenerator creates a new inventory generator.
func NewInventoryGenerator(cfg GeneratorConfig, log *logging.Logger) *InventoryGenerator {
	faker := NewFaker()
	if cfg.Seed != 0 {
		faker = NewFakerWithSeed(cfg.Seed)
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultGeneratorConfig().BatchSize
	}
	if cfg.ProgressInterval < 1 {
		cfg.ProgressInterval = DefaultGeneratorConfig().ProgressInterval
	}
	return &InventoryGenerator{faker: faker, cfg: cfg, log: log}
}

// Generate replaces the source tables with generated data.
func (g *InventoryGenerator) Generate(ctx context.Context, store db.Store) (*Stats, error) {
	if g.cfg.Vendors < 1 || g.cfg.Brands < 1 {
		return nil, fmt.Errorf("at least one vendor and one brand are required")
	}

	g.log.Info().
		Int("vendors", g.cfg.Vendors).
		Int("brands", g.cfg.Brands).
		Int("purchases", g.cfg.Purchases).
		Int("sales", g.cfg.Sales).
		Int("invoices", g.cfg.Invoices).
		Msg("Generating inventory data")

	vendors := g.vendors()
	brands := g.brands(vendors)
	stats := &Stats{Vendors: len(vendors), Brands: len(brands)}

	if _, err := g.write(ctx, store, TablePurchasePrices, PurchasePricesColumns, g.priceRows(brands)); err != nil {
		return nil, err
	}

	var err error
	if stats.Purchases, err = g.write(ctx, store, TablePurchases, PurchasesColumns, g.purchaseRows(brands)); err != nil {
		return nil, err
	}
	if stats.Sales, err = g.write(ctx, store, TableSales, SalesColumns, g.salesRows(brands)); err != nil {
		return nil, err
	}
	if stats.Invoices, err = g.write(ctx, store, TableVendorInvoice, VendorInvoiceColumns, g.invoiceRows(vendors)); err != nil {
		return nil, err
	}

	return stats, nil
}

func (g *InventoryGenerator) write(ctx context.Context, store db.Store, table string, cols []db.Column,
	rows [][]any) (int64, error) {
	progress := NewProgressReporter(g.log, table, int64(len(rows)), g.cfg.ProgressInterval)
	n, err := store.ReplaceTable(ctx, table, cols, rows, g.cfg.BatchSize, progress.Report)
	if err != nil {
		return 0, fmt.Errorf("failed to generate %s: %w", table, err)
	}
	progress.Done()
	return n, nil
}

func (g *InventoryGenerator) vendors() []vendor {
	vendors := make([]vendor, g.cfg.Vendors)
	for i := range vendors {
		name := g.faker.VendorName()
		if g.faker.Chance(0.3) {
			name += strings.Repeat(" ", g.faker.Int(1, 16))
		}
		vendors[i] = vendor{
			number: int64(1000 + i*10 + g.faker.Int(0, 9)),
			name:   name,
		}
	}
	return vendors
}

func (g *InventoryGenerator) brands(vendors []vendor) []brand {
	brands := make([]brand, g.cfg.Brands)
	for i := range brands {
		size := ChooseWeighted(g.faker, bottleSizes, sizeWeights)
		volume, liters := "Unknown", 0.0
		if ml, ok := bottleVolumes[size]; ok {
			volume = fmt.Sprintf("%.0f", ml)
			liters = ml / 1000
		}

		price := g.faker.Price(4.99, 89.99)
		cost := Round2(price * g.faker.Float64(0.6, 0.8))
		if g.faker.Chance(0.02) {
			cost = 0
		}

		brands[i] = brand{
			id:             int64(100 + i),
			vendor:         Choose(g.faker, vendors),
			description:    g.faker.BrandDescription(),
			size:           size,
			volume:         volume,
			liters:         liters,
			price:          price,
			cost:           cost,
			classification: int64(g.faker.Int(1, 2)),
		}
	}
	return brands
}

func (g *InventoryGenerator) priceRows(brands []brand) [][]any {
	rows := make([][]any, len(brands))
	for i, b := range brands {
		rows[i] = []any{
			b.id, b.description, b.price, b.size, b.volume,
			b.classification, b.cost, b.vendor.number, b.vendor.name,
		}
	}
	return rows
}

func (g *InventoryGenerator) purchaseRows(brands []brand) [][]any {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := make([][]any, g.cfg.Purchases)
	for i := range rows {
		b := Choose(g.faker, brands)
		store := int64(g.faker.Int(1, 80))
		quantity := int64(g.faker.Int(1, 120))
		poDate := g.faker.DateRange(start, end)
		received := poDate.AddDate(0, 0, g.faker.Int(3, 14))
		invoiced := received.AddDate(0, 0, g.faker.Int(0, 5))
		paid := invoiced.AddDate(0, 0, g.faker.Int(20, 45))

		rows[i] = []any{
			fmt.Sprintf("%d_%d", store, b.id),
			store,
			b.id,
			b.description,
			b.size,
			b.vendor.number,
			b.vendor.name,
			int64(8000 + i/10),
			poDate.Format(dateLayout),
			received.Format(dateLayout),
			invoiced.Format(dateLayout),
			paid.Format(dateLayout),
			b.cost,
			quantity,
			Round2(float64(quantity) * b.cost),
			b.classification,
		}
	}
	return rows
}

func (g *InventoryGenerator) salesRows(brands []brand) [][]any {
	// Roughly one brand in seven never sells.
	sold := make([]brand, 0, len(brands))
	for _, b := range brands {
		if !g.faker.Chance(0.15) {
			sold = append(sold, b)
		}
	}
	if len(sold) == 0 {
		sold = brands[:1]
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := make([][]any, g.cfg.Sales)
	for i := range rows {
		b := Choose(g.faker, sold)
		store := int64(g.faker.Int(1, 80))
		quantity := int64(g.faker.Int(1, 12))

		rows[i] = []any{
			fmt.Sprintf("%d_%d", store, b.id),
			store,
			b.id,
			b.description,
			b.size,
			quantity,
			Round2(float64(quantity) * b.price),
			b.price,
			g.faker.DateRange(start, end).Format(dateLayout),
			b.volume,
			b.classification,
			Round2(float64(quantity) * b.liters * 0.79),
			b.vendor.number,
			b.vendor.name,
		}
	}
	return rows
}

func (g *InventoryGenerator) invoiceRows(vendors []vendor) [][]any {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := make([][]any, g.cfg.Invoices)
	for i := range rows {
		v := Choose(g.faker, vendors)
		poDate := g.faker.DateRange(start, end)
		invoiced := poDate.AddDate(0, 0, g.faker.Int(3, 14))
		quantity := int64(g.faker.Int(10, 5000))
		dollars := Round2(float64(quantity) * g.faker.Float64(4, 40))

		var approval any
		if g.faker.Chance(0.2) {
			approval = g.faker.Name()
		}

		rows[i] = []any{
			v.number,
			v.name,
			invoiced.Format(dateLayout),
			int64(8000 + i),
			poDate.Format(dateLayout),
			invoiced.AddDate(0, 0, g.faker.Int(20, 45)).Format(dateLayout),
			quantity,
			dollars,
			Round2(dollars * g.faker.Float64(0.003, 0.008)),
			approval,
		}
	}
	return rows
}
