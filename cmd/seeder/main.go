package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/storefront"
	"github.com/poiesic/storefront/config"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/ingestion"
)

var catalog = []*core.Product{
	{SKU: "PMRS123", Name: "Pro Marathon Running Shoes", Category: "footwear", Price: 129.99, Tags: []string{"running", "shoes"},
		Description: "Lightweight running shoes with responsive cushioning, built for long distances on road and track."},
	{SKU: "UFYM456", Name: "Ultra Flex Yoga Mat", Category: "fitness", Price: 39.99, Tags: []string{"yoga", "mat"},
		Description: "Non-slip six millimetre mat for yoga and pilates with a carrying strap."},
	{SKU: "PLDS789", Name: "Pro League Soccer Ball", Category: "soccer", Price: 24.50, Tags: []string{"soccer", "ball"},
		Description: "Match grade size five soccer ball with a thermally bonded cover."},
	{SKU: "SSTR101", Name: "Summit Storm Tent", Category: "camping", Price: 199.00, Tags: []string{"camping", "tent"},
		Description: "Two person four season tent for alpine camping, with a waterproof rainfly."},
	{SKU: "TBHB202", Name: "Trailblazer Hydration Pack", Category: "hiking", Price: 64.95, Tags: []string{"hiking", "hydration"},
		Description: "Twelve litre hiking pack with a two litre water reservoir and ventilated back panel."},
	{SKU: "CFBG303", Name: "Carbon Fiber Road Bike Helmet", Category: "cycling", Price: 149.00, Tags: []string{"cycling", "helmet"},
		Description: "Aerodynamic road cycling helmet with a carbon fibre shell and adjustable fit system."},
	{SKU: "PTRC404", Name: "Pickleball Tournament Racket Set", Category: "racket sports", Price: 79.99, Tags: []string{"pickleball", "paddle"},
		Description: "Two graphite pickleball paddles with four balls and a zippered carry bag."},
	{SKU: "AWDJ505", Name: "All Weather Down Jacket", Category: "apparel", Price: 219.00, Tags: []string{"jacket", "winter"},
		Description: "Packable goose down jacket with a water resistant shell for cold weather hiking."},
	{SKU: "HSBG606", Name: "Heavy Speed Boxing Gloves", Category: "combat sports", Price: 54.00, Tags: []string{"boxing", "gloves"},
		Description: "Sixteen ounce leather boxing gloves with wrist support for sparring and bag work."},
	{SKU: "KFBT707", Name: "Kids First Baseball Bat", Category: "baseball", Price: 34.99, Tags: []string{"baseball", "youth"},
		Description: "Lightweight aluminium youth baseball bat, twenty six inches, for young players."},
}

var demoProfile = &core.CustomerProfile{
	UserID:           "551dfc94-764a-4839-b8db-e6f04b5715c6",
	Name:             "Charles",
	Email:            "charles@example.com",
	PastTransactions: []string{"PMRS123", "UFYM456", "PLDS789", "SSTR101"},
}

var (
	seedFileName = flag.String("src", "", "JSON product catalog to seed instead of the demo catalog")
	envFile      = flag.String("env", ".env", "environment file")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// productsFromSlice returns an iterator over a slice of products.
func productsFromSlice(products []*core.Product) iter.Seq[*core.Product] {
	return func(yield func(*core.Product) bool) {
		for _, p := range products {
			if !yield(p) {
				return
			}
		}
	}
}

// ingestBatched reads from a source iterator and ingests products in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq[*core.Product], batchSize int) error {
	batch := make([]*core.Product, 0, batchSize)

	flush := func() error {
		report, err := pipeline.Ingest(ctx, batch)
		if err != nil {
			return err
		}
		for _, f := range report.Failures {
			slog.Warn("product skipped", "sku", f.SKU, "stage", f.Stage, "err", f.Err)
		}
		batch = batch[:0]
		return nil
	}

	for p := range source {
		batch = append(batch, p)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	// Process any remaining products
	if len(batch) > 0 {
		return flush()
	}
	return nil
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	assistant, err := storefront.New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer assistant.Close()

	if err := assistant.InitSchema(ctx); err != nil {
		panic(err)
	}

	ingester, err := assistant.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	// Determine source of seed data
	products := catalog
	if *seedFileName != "" {
		products, err = ingestion.LoadProductsFile(*seedFileName, cfg.SchemaVariant())
		if err != nil {
			panic(err)
		}
	}

	// Ingest in batches of 5
	if err := ingestBatched(ctx, ingester, productsFromSlice(products), 5); err != nil {
		panic(err)
	}

	if err := assistant.Profiles().PutProfile(ctx, demoProfile); err != nil {
		panic(err)
	}
	slog.Info("seeded storefront", "products", len(products), "profile", demoProfile.UserID)
}
