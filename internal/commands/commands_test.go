package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbank-dev/gdbank/internal/config"
	"github.com/gdbank-dev/gdbank/internal/store"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runCmd(t, "init", dir, "--name", "Test Bank")
	require.NoError(t, err)
	return dir
}

func TestInitCreatesProject(t *testing.T) {
	dir := initProject(t)

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Test Bank")

	accounts, err := os.ReadFile(filepath.Join(dir, "data", store.AccountsFileName))
	require.NoError(t, err)
	assert.Equal(t, store.Header, strings.TrimSpace(string(accounts)))
}

func TestInitRequiresName(t *testing.T) {
	_, err := runCmd(t, "init", t.TempDir())
	require.Error(t, err)
}

func TestAccountCreateDepositWithdraw(t *testing.T) {
	dir := initProject(t)

	out, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "Opened account 1001")

	out, err = runCmd(t, "--dir", dir, "deposit", "1001", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 1500.00")

	out, err = runCmd(t, "--dir", dir, "withdraw", "1001", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 1300.00")

	// State survives across invocations via accounts.csv.
	out, err = runCmd(t, "--dir", dir, "account", "show", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance:  1300.00")
}

func TestWithdrawBelowMinimumFails(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "500")
	require.NoError(t, err)

	_, err = runCmd(t, "--dir", dir, "withdraw", "1001", "100")
	require.Error(t, err, "Savings must keep 500 after any debit")
}

func TestTransferAndHistory(t *testing.T) {
	dir := initProject(t)

	for _, name := range []string{"Asha Rao", "Vikram Shah"} {
		_, err := runCmd(t, "--dir", dir, "account", "create",
			"--name", name, "--age", "40", "--type", "Savings", "--deposit", "1000")
		require.NoError(t, err)
	}

	out, err := runCmd(t, "--dir", dir, "transfer", "1001", "1002", "300")
	require.NoError(t, err)
	assert.Contains(t, out, "Transferred 300.00 from 1001 to 1002")

	out, err = runCmd(t, "--dir", dir, "history", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "TRANSFER_OUT")
	assert.Contains(t, out, "to 1002")
}

func TestReverseCommand(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "deposit", "1001", "250")
	require.NoError(t, err)

	out, err := runCmd(t, "--dir", dir, "reverse", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "reverses DEPOSIT")
	assert.Contains(t, out, "balance 1000.00")
}

func TestAccountLifecycleCommands(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)

	_, err = runCmd(t, "--dir", dir, "account", "lock", "1001")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "deposit", "1001", "10")
	require.Error(t, err, "locked account rejects deposits")

	_, err = runCmd(t, "--dir", dir, "account", "unlock", "1001")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "deposit", "1001", "10")
	require.NoError(t, err)

	_, err = runCmd(t, "--dir", dir, "account", "close", "1001")
	require.NoError(t, err)
	out, err := runCmd(t, "--dir", dir, "account", "list", "--status", "Inactive")
	require.NoError(t, err)
	assert.Contains(t, out, "Asha Rao")

	_, err = runCmd(t, "--dir", dir, "account", "reopen", "1001")
	require.NoError(t, err)
}

func TestAdminDeleteAllIsGated(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)

	// Refused outright before a password exists.
	_, err = runCmd(t, "--dir", dir, "admin", "delete-all", "--password", "whatever")
	require.Error(t, err)

	_, err = runCmd(t, "--dir", dir, "admin", "set-password", "short")
	require.Error(t, err, "minimum password length applies")

	_, err = runCmd(t, "--dir", dir, "admin", "set-password", "s3cret-pass")
	require.NoError(t, err)

	_, err = runCmd(t, "--dir", dir, "admin", "delete-all", "--password", "wrong")
	require.Error(t, err)

	out, err := runCmd(t, "--dir", dir, "admin", "delete-all", "--password", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 accounts")

	// Numbers are never reused: the next account continues after 1001.
	out, err = runCmd(t, "--dir", dir, "account", "create",
		"--name", "Vikram Shah", "--age", "40", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "Opened account 1002")
}

func TestScheduledTransferAcrossInvocations(t *testing.T) {
	dir := initProject(t)

	for _, name := range []string{"Asha Rao", "Vikram Shah"} {
		_, err := runCmd(t, "--dir", dir, "account", "create",
			"--name", name, "--age", "40", "--type", "Savings", "--deposit", "1000")
		require.NoError(t, err)
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_, err := runCmd(t, "--dir", dir, "schedule", "add", "1001", "1002", "150", "--at", yesterday)
	require.NoError(t, err)

	out, err := runCmd(t, "--dir", dir, "schedule", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "150.00 from 1001 to 1002")

	out, err = runCmd(t, "--dir", dir, "schedule", "run-due")
	require.NoError(t, err)
	assert.Contains(t, out, "OK\t150.00 from 1001 to 1002")

	// One-shot: consumed after execution.
	out, err = runCmd(t, "--dir", dir, "schedule", "run-due")
	require.NoError(t, err)
	assert.Contains(t, out, "0 jobs executed")

	out, err = runCmd(t, "--dir", dir, "account", "show", "1002")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance:  1150.00")
}

func TestRecurringPaymentCommands(t *testing.T) {
	dir := initProject(t)

	for _, name := range []string{"Asha Rao", "Vikram Shah"} {
		_, err := runCmd(t, "--dir", dir, "account", "create",
			"--name", name, "--age", "40", "--type", "Savings", "--deposit", "1000")
		require.NoError(t, err)
	}

	_, err := runCmd(t, "--dir", dir, "recurring", "add", "1001", "1002", "50", "--every", "7")
	require.NoError(t, err)

	out, err := runCmd(t, "--dir", dir, "recurring", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "every 7 days")

	out, err = runCmd(t, "--dir", dir, "schedule", "run-due")
	require.NoError(t, err)
	assert.Contains(t, out, "OK\t50.00 from 1001 to 1002")

	// Advanced a week out, nothing due on the second run.
	out, err = runCmd(t, "--dir", dir, "schedule", "run-due")
	require.NoError(t, err)
	assert.Contains(t, out, "0 jobs executed")

	_, err = runCmd(t, "--dir", dir, "recurring", "cancel", "0")
	require.NoError(t, err)

	out, err = runCmd(t, "--dir", dir, "recurring", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "every 7 days")
}

func TestBeneficiaryCommands(t *testing.T) {
	dir := initProject(t)

	for _, name := range []string{"Asha Rao", "Vikram Shah"} {
		_, err := runCmd(t, "--dir", dir, "account", "create",
			"--name", name, "--age", "40", "--type", "Savings", "--deposit", "1000")
		require.NoError(t, err)
	}

	_, err := runCmd(t, "--dir", dir, "beneficiary", "add", "1001", "1002", "--nickname", "rent")
	require.NoError(t, err)

	_, err = runCmd(t, "--dir", dir, "beneficiary", "add", "1001", "1002")
	require.Error(t, err, "duplicate (owner, account) pair")

	out, err := runCmd(t, "--dir", dir, "beneficiary", "list", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "rent")

	_, err = runCmd(t, "--dir", dir, "beneficiary", "remove", "1001", "1002")
	require.NoError(t, err)

	out, err = runCmd(t, "--dir", dir, "beneficiary", "list", "1001")
	require.NoError(t, err)
	assert.NotContains(t, out, "rent")
}

func TestStatementExport(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "deposit", "1001", "500")
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "stmt.csv")
	out, err := runCmd(t, "--dir", dir, "statement", "1001", "--export", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 entries")

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEPOSIT")
	assert.Contains(t, string(data), "CREATE")
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "accounts.csv")
	_, err = runCmd(t, "--dir", dir, "account", "export", exportPath)
	require.NoError(t, err)

	other := initProject(t)
	out, err := runCmd(t, "--dir", other, "account", "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 accounts")

	out, err = runCmd(t, "--dir", other, "account", "show", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "Asha Rao")
}

func TestTagCommandPersistsAcrossInvocations(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "deposit", "1001", "250")
	require.NoError(t, err)

	out, err := runCmd(t, "--dir", dir, "history", "1001", "--limit", "1")
	require.NoError(t, err)
	txID := strings.Fields(out)[0]
	require.NotEmpty(t, txID)

	_, err = runCmd(t, "--dir", dir, "tag", "1001", txID, "rent", "--note", "march rent")
	require.NoError(t, err)

	_, err = runCmd(t, "--dir", dir, "tag", "1001", "no-such-id", "rent")
	require.Error(t, err)

	out, err = runCmd(t, "--dir", dir, "history", "1001", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[rent]")
}

func TestAccountPoliciesSurviveRestart(t *testing.T) {
	dir := initProject(t)

	_, err := runCmd(t, "--dir", dir, "account", "create",
		"--name", "Asha Rao", "--age", "30", "--type", "Savings", "--deposit", "1000")
	require.NoError(t, err)

	_, err = runCmd(t, "--dir", dir, "account", "set-overdraft", "1001", "--limit", "200", "--fee", "10")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "account", "currency", "1001", "USD")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "account", "set-alert", "1001", "600")
	require.NoError(t, err)

	// Each command below reopens the project from disk; the overdraft
	// policy and display currency must still be attached.
	out, err := runCmd(t, "--dir", dir, "withdraw", "1001", "1100")
	require.NoError(t, err, "overdraft policy applies after restart")
	assert.Contains(t, out, "balance -110.00")

	out, err = runCmd(t, "--dir", dir, "account", "show", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "-110.00 USD")
	assert.Contains(t, out, "Overdraft: limit 200.00, fee 10.00")

	_, err = os.Stat(filepath.Join(dir, "data", store.PoliciesFileName))
	require.NoError(t, err)

	// Unlock clears the lock flag but keeps the rest of the policy state.
	_, err = runCmd(t, "--dir", dir, "account", "lock", "1001")
	require.NoError(t, err)
	_, err = runCmd(t, "--dir", dir, "account", "unlock", "1001")
	require.NoError(t, err)
	out, err = runCmd(t, "--dir", dir, "account", "show", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "Locked:   false")
	assert.Contains(t, out, "-110.00 USD")
}
