package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gdbank-dev/gdbank/internal/model"
	"github.com/gdbank-dev/gdbank/internal/schedule"
)

// JobsFileName holds scheduling state under the data directory.
const JobsFileName = "jobs.yaml"

// Amounts are written as strings and times in RFC 3339 so the file stays
// hand-editable and round-trips exactly.
type jobsFile struct {
	Scheduled     []scheduledJob     `yaml:"scheduled"`
	Recurring     []recurringJob     `yaml:"recurring"`
	Beneficiaries []beneficiaryEntry `yaml:"beneficiaries"`
}

type scheduledJob struct {
	From      int    `yaml:"from"`
	To        int    `yaml:"to"`
	Amount    string `yaml:"amount"`
	ExecuteAt string `yaml:"execute_at"`
	CreatedAt string `yaml:"created_at"`
}

type recurringJob struct {
	From         int    `yaml:"from"`
	To           int    `yaml:"to"`
	Amount       string `yaml:"amount"`
	IntervalDays int    `yaml:"interval_days"`
	NextRun      string `yaml:"next_run"`
	CreatedAt    string `yaml:"created_at"`
}

type beneficiaryEntry struct {
	Owner    int    `yaml:"owner"`
	Account  int    `yaml:"account"`
	Nickname string `yaml:"nickname"`
}

func (s *Store) jobsPath() string {
	return filepath.Join(s.dir, JobsFileName)
}

// SaveJobs writes the scheduling state to jobs.yaml.
func (s *Store) SaveJobs(st schedule.State) error {
	jf := jobsFile{}
	for _, j := range st.Scheduled {
		jf.Scheduled = append(jf.Scheduled, scheduledJob{
			From:      j.From,
			To:        j.To,
			Amount:    j.Amount.StringFixed(2),
			ExecuteAt: j.ExecuteAt.Format(time.RFC3339),
			CreatedAt: j.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, j := range st.Recurring {
		jf.Recurring = append(jf.Recurring, recurringJob{
			From:         j.From,
			To:           j.To,
			Amount:       j.Amount.StringFixed(2),
			IntervalDays: j.IntervalDays,
			NextRun:      j.NextRun.Format(time.RFC3339),
			CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, b := range st.Beneficiaries {
		jf.Beneficiaries = append(jf.Beneficiaries, beneficiaryEntry{
			Owner:    b.Owner,
			Account:  b.Account,
			Nickname: b.Nickname,
		})
	}

	data, err := yaml.Marshal(jf)
	if err != nil {
		return fmt.Errorf("encoding jobs file: %w", err)
	}
	if err := os.WriteFile(s.jobsPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing jobs file: %w", err)
	}
	return nil
}

// LoadJobs reads jobs.yaml. A missing file yields an empty state.
func (s *Store) LoadJobs() (schedule.State, error) {
	var st schedule.State

	data, err := os.ReadFile(s.jobsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("reading jobs file: %w", err)
	}

	var jf jobsFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return st, fmt.Errorf("parsing jobs file: %w", err)
	}

	for i, j := range jf.Scheduled {
		amount, executeAt, createdAt, err := parseJobFields(j.Amount, j.ExecuteAt, j.CreatedAt)
		if err != nil {
			return schedule.State{}, fmt.Errorf("scheduled job %d: %w", i, err)
		}
		st.Scheduled = append(st.Scheduled, model.ScheduledTransfer{
			From:      j.From,
			To:        j.To,
			Amount:    amount,
			ExecuteAt: executeAt,
			CreatedAt: createdAt,
		})
	}
	for i, j := range jf.Recurring {
		amount, nextRun, createdAt, err := parseJobFields(j.Amount, j.NextRun, j.CreatedAt)
		if err != nil {
			return schedule.State{}, fmt.Errorf("recurring job %d: %w", i, err)
		}
		st.Recurring = append(st.Recurring, model.RecurringPayment{
			From:         j.From,
			To:           j.To,
			Amount:       amount,
			IntervalDays: j.IntervalDays,
			NextRun:      nextRun,
			CreatedAt:    createdAt,
		})
	}
	for _, b := range jf.Beneficiaries {
		st.Beneficiaries = append(st.Beneficiaries, model.Beneficiary{
			Owner:    b.Owner,
			Account:  b.Account,
			Nickname: b.Nickname,
		})
	}
	return st, nil
}

func parseJobFields(amountStr, whenStr, createdStr string) (decimal.Decimal, time.Time, time.Time, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Zero, time.Time{}, time.Time{}, fmt.Errorf("parsing amount %q: %w", amountStr, err)
	}
	when, err := time.Parse(time.RFC3339, whenStr)
	if err != nil {
		return decimal.Zero, time.Time{}, time.Time{}, fmt.Errorf("parsing time %q: %w", whenStr, err)
	}
	created, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return decimal.Zero, time.Time{}, time.Time{}, fmt.Errorf("parsing created_at %q: %w", createdStr, err)
	}
	return amount, when, created, nil
}
