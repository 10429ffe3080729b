package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/storefront"
	"github.com/poiesic/storefront/config"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/ingestion"
	"github.com/poiesic/storefront/reembed"
	"github.com/poiesic/storefront/search"
	"github.com/poiesic/storefront/server"
)

// openAssistant loads configuration and connects the assistant. The caller
// must Close the result.
func openAssistant(ctx context.Context, c *cli.Context, opts ...storefront.Option) (*storefront.Assistant, *config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("embedding-model") {
		cfg.OpenAI.EmbeddingModel = c.String("embedding-model")
	}
	a, err := storefront.New(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

func initSchemaCommand(c *cli.Context) error {
	ctx := c.Context
	a, _, err := openAssistant(ctx, c, storefront.WithoutAI())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.InitSchema(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Schema ready")
	return nil
}

func ingestCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("catalog file is required")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cfg, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	products, err := ingestion.LoadProductsFile(path, cfg.SchemaVariant())
	if err != nil {
		return err
	}

	opts := []ingestion.Option{ingestion.WithProgress(os.Stderr)}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}
	pipeline, err := a.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	report, err := pipeline.Ingest(ctx, products)
	if report != nil {
		printReport(c.App.Writer, report)
	}
	return err
}

func reembedCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, _, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.NewReembedder(&reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		Normalize:      c.Bool("normalize"),
	}, os.Stderr)
	if err != nil {
		return err
	}

	result, err := r.Run(ctx)
	if result != nil {
		for _, f := range result.Failures {
			fmt.Fprintf(c.App.Writer, "  %s failed: %v\n", f.SKU, f.Err)
		}
	}
	return err
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	ctx := c.Context

	a, _, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.Ask(ctx, question)
	if errors.Is(err, search.ErrNoMatchFound) {
		fmt.Fprintln(c.App.Writer, "No products found.")
		return nil
	}
	if err != nil {
		return err
	}
	printMatches(c.App.Writer, answer.Matches)
	fmt.Fprintf(c.App.Writer, "\n%s\n", answer.Reply)
	return nil
}

func matchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	ctx := c.Context

	a, _, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	matches, err := a.Searcher().MatchText(ctx, query, c.Int("limit"))
	if errors.Is(err, search.ErrNoMatchFound) {
		fmt.Fprintln(c.App.Writer, "No products found.")
		return nil
	}
	if err != nil {
		return err
	}
	printMatches(c.App.Writer, matches)
	return nil
}

func profilePutCommand(c *cli.Context) error {
	ctx := c.Context
	a, _, err := openAssistant(ctx, c, storefront.WithoutAI())
	if err != nil {
		return err
	}
	defer a.Close()

	profile := &core.CustomerProfile{
		UserID:           c.String("user-id"),
		Name:             c.String("name"),
		Email:            c.String("email"),
		PastTransactions: c.StringSlice("transaction"),
	}
	if err := a.Profiles().PutProfile(ctx, profile); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Stored profile for %s\n", profile.UserID)
	return nil
}

func profileGetCommand(c *cli.Context) error {
	ctx := c.Context
	a, _, err := openAssistant(ctx, c, storefront.WithoutAI())
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := a.Profiles().GetProfile(ctx, c.String("user-id"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}

func chatCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, _, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	return chatLoop(ctx, a, c.String("user-id"), c.App.Reader, c.App.Writer)
}

type conversation interface {
	Converse(ctx context.Context, userID, message string) (*search.Answer, error)
}

// chatLoop reads one message per line until "exit", EOF or cancellation.
// Failed answers are reported and the loop continues.
func chatLoop(ctx context.Context, assistant conversation, userID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		switch {
		case message == "":
			continue
		case strings.EqualFold(message, "exit"):
			return nil
		}

		answer, err := assistant.Converse(ctx, userID, message)
		switch {
		case err == nil:
			fmt.Fprintf(out, "Assistant: %s\n", answer.Reply)
		case errors.Is(err, search.ErrNoMatchFound):
			fmt.Fprintf(out, "Assistant: %s\n", search.OffTopicReply)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cfg, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := c.String("addr")
	if addr == "" {
		addr = cfg.Storefront.ListenAddr
	}
	var opts []server.Option
	if origins := c.StringSlice("allow-origin"); len(origins) > 0 {
		opts = append(opts, server.WithAllowOrigins(origins...))
	}
	return server.New(a, opts...).Run(ctx, addr)
}

func printMatches(w io.Writer, matches []*core.ProductMatch) {
	for i, m := range matches {
		p := m.Product
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, p.Name, p.Category)
		fmt.Fprintf(w, "   %s\n", p.Description)
		fmt.Fprintf(w, "   $%.2f  score %.4f\n", p.Price, m.Score)
	}
}

func printReport(w io.Writer, report *ingestion.Report) {
	fmt.Fprintf(w, "Indexed %d of %d products\n", report.Indexed, report.Total)
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  record %d (%s) failed at %s: %v\n", f.Position, f.SKU, f.Stage, f.Err)
	}
}
