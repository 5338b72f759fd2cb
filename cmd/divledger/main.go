// Command divledger is the thin CLI collaborator around the core
// pipeline (§6 "CLI contract"): it decodes flags, loads a journal (or a
// broker CSV/HTML export), and runs the nine core operations in
// sequence, in the teacher's banner-log style (cmd/pipeline_demo's
// logStep, cmd/api's bracketed fmt.Printf warnings).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"divledger/pkg/config"
	"divledger/pkg/core/caldate"
	"divledger/pkg/core/fx"
	"divledger/pkg/core/journal"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/normalize"
	"divledger/pkg/core/projection"
	"divledger/pkg/core/prune"
	"divledger/pkg/core/splits"
	"divledger/pkg/core/store"
	"divledger/pkg/diagnostics"
	"divledger/pkg/importers/csvbroker"
	"divledger/pkg/importers/htmlbroker"
	"divledger/pkg/render/markdown"
)

func logStep(step string, details string) {
	fmt.Printf("\n[STEP] %s\n", step)
	fmt.Println("---------------------------------------------------------")
	fmt.Println(details)
	fmt.Println("---------------------------------------------------------")
}

func main() {
	os.Exit(run())
}

func run() int {
	journalPath := flag.String("journal", "", "path to a journal file (default: config's journal_path)")
	importCSV := flag.String("import-csv", "", "path to a broker CSV export, instead of a journal file")
	importHTML := flag.String("import-html", "", "path to a broker HTML export, instead of a journal file")
	configPath := flag.String("config", "", "path to a config file (overrides $DIVLEDGER_CONFIG and ~/.config/divledger/config.yaml)")
	since := flag.String("since", "", "projection window start, YYYY/MM/DD (default: today)")
	currency := flag.String("currency", "", "convert every amount into this currency before output")
	dividendCurrency := flag.Bool("dividend-currency", false, "restate amounts in their own dividend currency")
	estimates := flag.Bool("with-estimates", false, "synthesize amounts for preliminary records")
	project := flag.Bool("project", false, "append forward-looking projected transactions")
	asMarkdown := flag.Bool("markdown", false, "render the result as a markdown table instead of journal text")
	compact := flag.Bool("compact", false, "one line per entry (overrides config)")
	quiet := flag.Bool("quiet", false, "suppress non-fatal diagnostics")
	cacheDir := flag.String("cache-dir", "", "ledger snapshot cache directory (default: .cache/divledger/snapshots)")
	noCache := flag.Bool("no-cache", false, "skip the ledger snapshot cache, always re-running normalize/split/prune")
	flag.Parse()
	defer store.Close()

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("[WARNING] failed to load config: %v\n", err)
		settings = config.Defaults()
	}
	if *compact {
		settings.Compact = true
	}
	if *currency == "" {
		*currency = settings.ReportCurrency
	}

	path := *journalPath
	if path == "" {
		path = settings.JournalPath
	}

	logStep("1. Load", fmt.Sprintf("journal=%q import-csv=%q import-html=%q", path, *importCSV, *importHTML))
	txs, err := load(path, *importCSV, *importHTML, settings)
	if err != nil {
		return fail(err)
	}
	fmt.Printf(" [Load] %d transaction(s)\n", len(txs))

	cache, cacheKey := openLedgerCache(path, *importCSV, *importHTML, *noCache, *cacheDir)

	logStep("2-4. Normalize / split adjustment / redundancy pruning", "resolving positions, splits, and restated redundancies")
	if snap := cacheLookup(cache, cacheKey); snap != nil {
		fmt.Printf(" [Cache] snapshot hit for %s, skipping normalize/split/prune\n", path)
		txs = snap.Transactions
	} else {
		txs, err = normalize.Run(txs)
		if err != nil {
			return fail(err)
		}
		txs = splits.Adjust(txs)
		txs = prune.Run(txs)
		cacheSave(cache, cacheKey, path, txs)
	}

	if report := ledger.CheckInvariants(txs); !report.AllPassed {
		for _, msg := range report.FailedChecks {
			fmt.Printf("[FATAL] invariant violation: %s\n", msg)
		}
		return 1
	}

	logStep("3. Exchange-rate index", "building the reference-rate table from observed cross-currency records")
	idx := fx.Build(txs)

	if *project {
		sinceDate := caldate.FromTime(time.Now())
		if *since != "" {
			sinceDate, err = caldate.ParseDatestamp(*since)
			if err != nil {
				return fail(err)
			}
		}
		logStep("4. Projection", fmt.Sprintf("since=%s", sinceDate))
		projected, err := projection.Run(txs, idx, projection.Options{Since: sinceDate})
		if err != nil {
			return fail(err)
		}
		txs = ledger.Sort(append(txs, projected...))
		fmt.Printf(" [Projection] %d projected record(s)\n", len(projected))
	}

	if *estimates {
		logStep("5. Estimates", "synthesizing amounts for preliminary records")
		txs, err = idx.WithEstimates(txs)
		if err != nil {
			return fail(err)
		}
	}

	if *dividendCurrency {
		logStep("6. Dividend-currency restatement", "recomputing amounts directly from position x dividend")
		txs = fx.InDividendCurrency(txs)
	}

	if *currency != "" {
		logStep("7. Currency conversion", fmt.Sprintf("target=%s", *currency))
		txs, err = idx.InCurrency(txs, *currency)
		if err != nil {
			return fail(err)
		}
	}

	if !*quiet {
		if diags := diagnostics.Run(txs, idx); len(diags) > 0 {
			fmt.Println("\n[DIAGNOSTICS]")
			for _, d := range diags {
				fmt.Println(" -", d.String())
			}
		}
	}

	if *asMarkdown {
		out, err := markdown.Render(txs)
		if err != nil {
			return fail(err)
		}
		fmt.Println()
		fmt.Print(out)
		return 0
	}

	fmt.Println()
	fmt.Print(journal.Serialize(txs, journal.SerializeOptions{Compact: settings.Compact}))
	return 0
}

func load(path, csvPath, htmlPath string, settings config.Settings) ([]ledger.Transaction, error) {
	switch {
	case csvPath != "":
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return csvbroker.Import(f, csvPath)
	case htmlPath != "":
		f, err := os.Open(htmlPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return htmlbroker.Import(f, htmlPath)
	case path != "":
		opts := journal.DefaultOptions()
		if settings.DecimalSeparator != "" {
			opts.DecimalSeparator = settings.DecimalSeparator[0]
		}
		return journal.Read(path, opts)
	default:
		return nil, fmt.Errorf("no journal, --import-csv, or --import-html path given")
	}
}

// openLedgerCache resolves a cache key from the journal file's content
// hash (store.ContentHash) and opens the snapshot cache. Caching only
// applies to journal-file input, not broker CSV/HTML imports, since
// store.Snapshot is keyed on a single journal's content. When
// DATABASE_URL is set, the cache is backed by Postgres via store.InitDB
// (the hybrid vault's primary store); otherwise it falls back to the
// on-disk snapshot directory.
func openLedgerCache(path, csvPath, htmlPath string, disabled bool, dir string) (*store.LedgerCache, string) {
	if disabled || csvPath != "" || htmlPath != "" || path == "" {
		return nil, ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ""
	}

	var pool *pgxpool.Pool
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(context.Background()); err != nil {
			fmt.Printf("[WARNING] ledger cache DB unavailable, falling back to file cache: %v\n", err)
		} else {
			pool = store.GetPool()
		}
	}

	return store.NewLedgerCache(pool, dir), store.ContentHash(raw)
}

func cacheLookup(cache *store.LedgerCache, key string) *store.Snapshot {
	if cache == nil {
		return nil
	}
	snap, err := cache.Get(context.Background(), key)
	if err != nil {
		fmt.Printf("[WARNING] ledger cache lookup failed: %v\n", err)
		return nil
	}
	return snap
}

func cacheSave(cache *store.LedgerCache, key, path string, txs []ledger.Transaction) {
	if cache == nil {
		return
	}
	snap := &store.Snapshot{JournalPath: path, Transactions: txs, BuiltAt: time.Now(), RunID: ledger.NewRunID()}
	if err := cache.Save(context.Background(), key, snap); err != nil {
		fmt.Printf("[WARNING] failed to save ledger cache snapshot: %v\n", err)
	}
}

// fail prints a ledger.Error in the §7 "path:line message" form when
// available, and returns the non-zero exit code §6 specifies.
func fail(err error) int {
	var lerr *ledger.Error
	if asLedgerError(err, &lerr) {
		fmt.Printf("[FATAL] %s\n", lerr.Error())
	} else {
		fmt.Printf("[FATAL] %v\n", err)
	}
	return 1
}

func asLedgerError(err error, out **ledger.Error) bool {
	for err != nil {
		if lerr, ok := err.(*ledger.Error); ok {
			*out = lerr
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
