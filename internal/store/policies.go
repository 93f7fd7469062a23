package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gdbank-dev/gdbank/internal/model"
)

// PoliciesFileName holds per-account runtime state that the accounts table
// has no columns for: locks, overdraft policies, display currency and
// low-balance alert thresholds.
const PoliciesFileName = "policies.yaml"

// AccountPolicy is the runtime state carried alongside an account row.
type AccountPolicy struct {
	Locked            bool
	Currency          string
	Overdraft         *model.OverdraftPolicy
	LowBalanceAlertAt *decimal.Decimal
}

type policiesFile struct {
	Accounts []policyEntry `yaml:"accounts"`
}

type policyEntry struct {
	Account         int             `yaml:"account"`
	Locked          bool            `yaml:"locked,omitempty"`
	Currency        string          `yaml:"currency,omitempty"`
	Overdraft       *overdraftEntry `yaml:"overdraft,omitempty"`
	LowBalanceAlert string          `yaml:"low_balance_alert,omitempty"`
}

type overdraftEntry struct {
	Limit string `yaml:"limit"`
	Fee   string `yaml:"fee"`
}

func (s *Store) policiesPath() string {
	return filepath.Join(s.dir, PoliciesFileName)
}

// SavePolicies rewrites policies.yaml from the given accounts. Accounts
// with no runtime state beyond the table columns are omitted.
func (s *Store) SavePolicies(accounts []model.Account) error {
	var pf policiesFile
	for _, acc := range accounts {
		if !acc.Locked && acc.Overdraft == nil && acc.Currency == "" && acc.LowBalanceAlertAt == nil {
			continue
		}
		entry := policyEntry{
			Account:  acc.Number,
			Locked:   acc.Locked,
			Currency: acc.Currency,
		}
		if acc.Overdraft != nil {
			entry.Overdraft = &overdraftEntry{
				Limit: acc.Overdraft.Limit.StringFixed(2),
				Fee:   acc.Overdraft.Fee.StringFixed(2),
			}
		}
		if acc.LowBalanceAlertAt != nil {
			entry.LowBalanceAlert = acc.LowBalanceAlertAt.StringFixed(2)
		}
		pf.Accounts = append(pf.Accounts, entry)
	}
	sort.Slice(pf.Accounts, func(i, j int) bool { return pf.Accounts[i].Account < pf.Accounts[j].Account })

	data, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("encoding policies file: %w", err)
	}
	if err := os.WriteFile(s.policiesPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing policies file: %w", err)
	}
	return nil
}

// LoadPolicies reads policies.yaml, keyed by account number. A missing
// file yields an empty map.
func (s *Store) LoadPolicies() (map[int]AccountPolicy, error) {
	policies := make(map[int]AccountPolicy)

	data, err := os.ReadFile(s.policiesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return policies, nil
		}
		return nil, fmt.Errorf("reading policies file: %w", err)
	}

	var pf policiesFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing policies file: %w", err)
	}

	for _, entry := range pf.Accounts {
		p := AccountPolicy{Locked: entry.Locked, Currency: entry.Currency}
		if entry.Overdraft != nil {
			limit, err := decimal.NewFromString(entry.Overdraft.Limit)
			if err != nil {
				return nil, fmt.Errorf("account %d: parsing overdraft limit %q: %w", entry.Account, entry.Overdraft.Limit, err)
			}
			fee, err := decimal.NewFromString(entry.Overdraft.Fee)
			if err != nil {
				return nil, fmt.Errorf("account %d: parsing overdraft fee %q: %w", entry.Account, entry.Overdraft.Fee, err)
			}
			p.Overdraft = &model.OverdraftPolicy{Limit: limit, Fee: fee}
		}
		if entry.LowBalanceAlert != "" {
			alert, err := decimal.NewFromString(entry.LowBalanceAlert)
			if err != nil {
				return nil, fmt.Errorf("account %d: parsing low balance alert %q: %w", entry.Account, entry.LowBalanceAlert, err)
			}
			p.LowBalanceAlertAt = &alert
		}
		policies[entry.Account] = p
	}
	return policies, nil
}

// ApplyPolicies merges loaded policies into the given accounts in place.
// Policies for unknown account numbers are ignored.
func ApplyPolicies(accounts []model.Account, policies map[int]AccountPolicy) {
	for i := range accounts {
		p, ok := policies[accounts[i].Number]
		if !ok {
			continue
		}
		accounts[i].Locked = p.Locked
		accounts[i].Currency = p.Currency
		accounts[i].Overdraft = p.Overdraft
		accounts[i].LowBalanceAlertAt = p.LowBalanceAlertAt
	}
}
