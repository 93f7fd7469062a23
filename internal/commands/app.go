// Package commands is the CLI surface over the ledger. Every subcommand
// opens the project directory, performs one operation and persists the
// resulting state, so the engine itself stays free of terminal concerns.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gdbank-dev/gdbank/internal/config"
	"github.com/gdbank-dev/gdbank/internal/ledger"
	"github.com/gdbank-dev/gdbank/internal/metrics"
	"github.com/gdbank-dev/gdbank/internal/model"
	"github.com/gdbank-dev/gdbank/internal/pin"
	"github.com/gdbank-dev/gdbank/internal/schedule"
	"github.com/gdbank-dev/gdbank/internal/statement"
	"github.com/gdbank-dev/gdbank/internal/store"
	"github.com/gdbank-dev/gdbank/internal/txlog"
)

const dateFormat = "2006-01-02"

// app wires every service over one project directory for the duration of
// a single command.
type app struct {
	cfg        *config.Config
	store      *store.Store
	log        *txlog.Service
	ledger     *ledger.Ledger
	engine     *schedule.Engine
	statements *statement.Service
	metrics    *metrics.Collector
	hasher     *pin.Hasher
	logger     *slog.Logger
}

// openApp loads config and persisted state from dir and builds the full
// service graph.
func openApp(dir string) (*app, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(absDir)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dataDir := cfg.Bank.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(absDir, dataDir)
	}

	st, err := store.New(dataDir, logger)
	if err != nil {
		return nil, err
	}

	accounts, err := st.LoadAccounts()
	if err != nil {
		return nil, err
	}
	policies, err := st.LoadPolicies()
	if err != nil {
		return nil, err
	}
	store.ApplyPolicies(accounts, policies)

	txs, err := txlog.Open(dataDir, logger)
	if err != nil {
		return nil, err
	}

	hasher := pin.NewHasher(pin.Params{
		Time:    cfg.PIN.Time,
		Memory:  cfg.PIN.Memory,
		Threads: cfg.PIN.Threads,
		KeyLen:  cfg.PIN.KeyLen,
		SaltLen: cfg.PIN.SaltLen,
	})
	collector := metrics.NewCollector()

	lgr := ledger.New(toPointers(accounts), ledger.Options{
		Log:          txs,
		Hasher:       hasher,
		Logger:       logger,
		Metrics:      collector,
		BaseCurrency: cfg.Currency.Base,
		Rates:        cfg.Currency.Rates,
		NextNumber:   st.LoadNextNumber(),
	})

	engine := schedule.NewEngine(lgr)
	jobs, err := st.LoadJobs()
	if err != nil {
		return nil, err
	}
	engine.Restore(jobs)

	tags, err := st.LoadTags()
	if err != nil {
		return nil, err
	}
	txs.RestoreTags(tags)

	return &app{
		cfg:        cfg,
		store:      st,
		log:        txs,
		ledger:     lgr,
		engine:     engine,
		statements: statement.NewService(txs),
		metrics:    collector,
		hasher:     hasher,
		logger:     logger,
	}, nil
}

// saveAccounts persists the current account set, the per-account policy
// state that has no accounts.csv columns, and the number allocator.
// Called after every mutating command; the accounts table is
// overwrite-on-save.
func (a *app) saveAccounts() error {
	accounts := a.ledger.Accounts()
	if err := a.store.SaveAccounts(accounts); err != nil {
		return err
	}
	if err := a.store.SavePolicies(accounts); err != nil {
		return err
	}
	return a.store.SaveNextNumber(a.ledger.NextNumber())
}

// saveJobs persists the scheduling state.
func (a *app) saveJobs() error {
	return a.store.SaveJobs(a.engine.Snapshot())
}

// saveTags persists the transaction tag map.
func (a *app) saveTags() error {
	return a.store.SaveTags(a.log.Tags())
}

// dailyLimit returns the configured per-account daily cap, nil when
// disabled.
func (a *app) dailyLimit() *decimal.Decimal {
	if a.cfg.Limits.DefaultDaily <= 0 {
		return nil
	}
	limit := decimal.NewFromFloat(a.cfg.Limits.DefaultDaily)
	return &limit
}

func toPointers(accounts []model.Account) []*model.Account {
	out := make([]*model.Account, len(accounts))
	for i := range accounts {
		out[i] = &accounts[i]
	}
	return out
}

func parseAccountNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid account number %q", arg)
	}
	return n, nil
}

func parseAmount(arg string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(arg)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", arg)
	}
	return amount, nil
}

func parseDate(arg string) (time.Time, error) {
	t, err := time.Parse(dateFormat, arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", arg)
	}
	return t, nil
}
