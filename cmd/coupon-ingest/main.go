// Command coupon-ingest loads bulk promotional code dumps into the
// coupons table. Vendors deliver several gzip files of candidate codes;
// a code is accepted only when it appears in at least two of the files.
// The dumps are far too large to dedup in memory, so the tool streams
// each file twice with one bloom filter per file.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/appie1702/storefront/internal/domain/coupon"
	"github.com/appie1702/storefront/internal/storage/postgres"
)

const (
	filterCapacity = 120_000_000
	filterFPR      = 0.001
	dumpCount      = 3
	logEvery       = 10_000_000
	codeMinLen     = 8
	codeMaxLen     = 10
)

// campaignAmounts maps promoted campaign codes to their discount
// amount. Every other accepted code gets defaultAmount.
var campaignAmounts = map[string]string{
	"BIRTHDAY": "30",
	"FIFTYOFF": "50",
	"FESTIVE!": "25",
	"HAPPYHRS": "18",
	"OVER9000": "9",
}

const defaultAmount = "10"

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing couponbaseN.gz files")
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
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest done")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	ing, err := newIngest(dataDir)
	if err != nil {
		return err
	}

	slog.Info("pass 1: building per-file filters", slog.Int("dumps", len(ing.dumps)))
	if err := ing.buildFilters(ctx); err != nil {
		return errors.Wrap(err, "build filters")
	}

	slog.Info("pass 2: collecting accepted codes")
	accepted, err := ing.collectAccepted(ctx)
	if err != nil {
		return errors.Wrap(err, "collect accepted codes")
	}
	slog.Info("codes accepted", slog.Int("count", len(accepted)))

	if len(accepted) == 0 {
		slog.Info("nothing to write")
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return storeCoupons(ctx, postgres.NewCouponRepository(pool), accepted)
}

// ingest carries the dump paths and the bloom filter built for each
// dump during the first pass.
type ingest struct {
	dumps   []string
	filters []*bloom.BloomFilter
}

func newIngest(dir string) (*ingest, error) {
	in := &ingest{
		dumps:   make([]string, dumpCount),
		filters: make([]*bloom.BloomFilter, dumpCount),
	}
	for i := range in.dumps {
		path := filepath.Join(dir, fmt.Sprintf("couponbase%d.gz", i+1))
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "stat dump %s", path)
		}
		in.dumps[i] = path
	}
	return in, nil
}

// buildFilters streams every dump once, adding each well-formed code to
// that dump's own bloom filter. Dumps are processed concurrently.
func (in *ingest) buildFilters(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range in.dumps {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(filterCapacity, filterFPR)
			lines, err := scanGzip(ctx, in.dumps[i], func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "filter dump %d", i+1)
			}
			slog.Info("pass 1 dump done", slog.Int("dump", i+1), slog.Uint64("codes", lines))
			in.filters[i] = filter
			return nil
		})
	}
	return g.Wait()
}

// collectAccepted streams every dump a second time. A code from dump i
// becomes a candidate when some OTHER dump's filter also claims it; a
// candidate is accepted once two or more dumps contributed it.
func (in *ingest) collectAccepted(ctx context.Context) ([]string, error) {
	perDump := make([]map[string]struct{}, len(in.dumps))

	g, ctx := errgroup.WithContext(ctx)
	for i := range in.dumps {
		g.Go(func() error {
			candidates := make(map[string]struct{})
			lines, err := scanGzip(ctx, in.dumps[i], func(code string) {
				for j, f := range in.filters {
					if j != i && f.TestString(code) {
						candidates[code] = struct{}{}
						return
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "scan dump %d", i+1)
			}
			slog.Info("pass 2 dump done",
				slog.Int("dump", i+1),
				slog.Uint64("codes", lines),
				slog.Int("candidates", len(candidates)),
			)
			perDump[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Each per-dump set holds a code at most once, so the summed counts
	// are the number of dumps the code physically appeared in.
	seenIn := make(map[string]int)
	for _, candidates := range perDump {
		for code := range candidates {
			seenIn[code]++
		}
	}

	var accepted []string
	for code, n := range seenIn {
		if n >= 2 {
			accepted = append(accepted, code)
		}
	}
	return accepted, nil
}

// scanGzip streams a gzip dump line by line, invoking visit for every
// code of acceptable length. It returns the number of visited codes.
func scanGzip(ctx context.Context, path string, visit func(code string)) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var visited uint64
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return visited, err
		}
		code := scanner.Text()
		if len(code) < codeMinLen || len(code) > codeMaxLen {
			continue
		}
		visited++
		if visited%logEvery == 0 {
			slog.Info("scan progress", slog.String("dump", filepath.Base(path)), slog.Uint64("codes", visited))
		}
		visit(code)
	}
	if err := scanner.Err(); err != nil {
		return visited, errors.Wrapf(err, "scan %s", path)
	}
	return visited, nil
}

// storeCoupons upserts every accepted code with its campaign amount.
func storeCoupons(ctx context.Context, coupons coupon.Repository, codes []string) error {
	slog.Info("writing coupons", slog.Int("count", len(codes)))

	for i, code := range codes {
		raw, ok := campaignAmounts[code]
		if !ok {
			raw = defaultAmount
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return errors.Wrapf(err, "amount for code %s", code)
		}

		if err := coupons.Create(ctx, &coupon.Coupon{Code: code, Amount: amount}); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	return nil
}
