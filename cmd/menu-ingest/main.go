// Command menu-ingest bulk-loads restaurant menu dumps into PostgreSQL.
//
// Dumps are gzip-compressed JSONL files (one menu item per line). Files are
// parsed concurrently; a bloom filter skips item IDs already sent to the
// database, and the upsert is ON CONFLICT DO NOTHING so a rare bloom false
// positive or an exact duplicate never corrupts the catalog.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/platemate/order-api/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.0001
	batchSize     = 500
	progressEvery = 100_000
)

const upsertMenuItemSQL = `INSERT INTO menu_items (id, restaurant_id, name, category, price, available)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING`

// menuItemRow is one parsed line of a menu dump.
type menuItemRow struct {
	ID           string
	RestaurantID string
	Name         string
	Category     string
	Price        decimal.Decimal
	Available    bool
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz menu dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("menu ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("menu ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("ingesting menu dumps", slog.Int("files", len(files)))

	rows := make(chan menuItemRow, batchSize)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeItems(ctx, pool, rows)
	})

	parsers, parseCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		parsers.Go(parseFile(parseCtx, f, rows))
	}
	parseErr := parsers.Wait()
	close(rows)

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "write items")
	}
	if parseErr != nil {
		return errors.Wrap(parseErr, "parse dumps")
	}
	return nil
}

// parseFile streams one gzipped JSONL dump and sends parsed rows downstream.
func parseFile(ctx context.Context, path string, rows chan<- menuItemRow) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var count uint64
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			row, err := parseLine(line)
			if err != nil {
				return errors.Wrapf(err, "parse line %d of %s", count+1, filepath.Base(path))
			}

			select {
			case rows <- row:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("items", count),
				)
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("parse complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("total_items", count),
		)
		return nil
	}
}

// parseLine decodes one JSONL menu item.
func parseLine(line []byte) (menuItemRow, error) {
	row := menuItemRow{Available: true}

	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			row.ID, err = d.Str()
		case "restaurant_id":
			row.RestaurantID, err = d.Str()
		case "name":
			row.Name, err = d.Str()
		case "category":
			row.Category, err = d.Str()
		case "price":
			row.Price, err = decodePrice(d)
		case "available":
			row.Available, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return menuItemRow{}, err
	}

	if row.ID == "" || row.RestaurantID == "" {
		return menuItemRow{}, errors.New("id and restaurant_id are required")
	}
	return row, nil
}

// decodePrice accepts the price as either a JSON number or a quoted string.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(strings.Trim(string(n), `"`))
	default:
		return decimal.Zero, errors.New("price must be a number or string")
	}
}

// writeItems is the single database writer: it dedupes incoming rows with a
// bloom filter and upserts them in batches.
func writeItems(ctx context.Context, pool interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}, rows <-chan menuItemRow) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	batch := &pgx.Batch{}
	var written, skipped uint64

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "send batch")
		}
		batch = &pgx.Batch{}
		return nil
	}

	for row := range rows {
		if seen.TestString(row.ID) {
			skipped++
			continue
		}
		seen.AddString(row.ID)

		batch.Queue(upsertMenuItemSQL,
			row.ID, row.RestaurantID, row.Name, row.Category, row.Price, row.Available,
		)
		written++

		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
		}
	}

	if err := flush(); err != nil {
		return err
	}

	slog.Info("write complete", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
	return nil
}
