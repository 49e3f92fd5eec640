package services

import (
	"context"
	"testing"
	"time"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletFixture struct {
	svc           *walletService
	users         *fakeUserRepo
	recharges     *fakeRechargeRepo
	withdraws     *fakeWithdrawRepo
	transactions  *fakeTransactionRepo
	notifications *fakeNotificationRepo
	settings      *fakeSettingsRepo
	hub           *fakeHub
}

func newWalletFixture(t *testing.T) *walletFixture {
	t.Helper()

	f := &walletFixture{
		users:         newFakeUserRepo(),
		recharges:     newFakeRechargeRepo(),
		withdraws:     newFakeWithdrawRepo(),
		transactions:  newFakeTransactionRepo(),
		notifications: newFakeNotificationRepo(),
		settings:      newFakeSettingsRepo(),
		hub:           &fakeHub{},
	}
	svc := NewWalletService(
		fakeTxManager{},
		f.recharges,
		f.withdraws,
		f.users,
		f.transactions,
		f.notifications,
		f.settings,
		nil,
		f.hub,
		testLogger(),
	)
	f.svc = svc.(*walletService)
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestSubmitRechargeCreatesPendingLedgerEntry(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 0, IsActive: true})

	request, err := f.svc.SubmitRecharge(context.Background(), user.ID, SubmitRechargeInput{
		Amount:        500,
		Method:        "bkash",
		TransactionID: "TX123",
		SenderNumber:  "01700000000",
	}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, models.RequestPending, request.Status)
	// Balance is untouched until approval.
	assert.Equal(t, 0, f.users.users[user.ID].Balance)

	pending := f.transactions.byType(models.TxRechargeRequest)
	require.Len(t, pending, 1)
	assert.Equal(t, models.TxStatusPending, pending[0].Status)
	assert.Equal(t, 500, pending[0].Amount)
}

func TestSubmitRechargeRejectsInvalidAmount(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", IsActive: true})

	_, err := f.svc.SubmitRecharge(context.Background(), user.ID, SubmitRechargeInput{
		Amount:        0,
		Method:        "bkash",
		TransactionID: "TX123",
		SenderNumber:  "01700000000",
	}, "", nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApproveRechargeCreditsBalance(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 100, IsActive: true})
	admin := f.users.add(&models.User{Name: "admin", Email: "admin@test.dev", FFID: "ff-a", Role: models.RoleAdmin, IsActive: true})

	request, err := f.svc.SubmitRecharge(context.Background(), user.ID, SubmitRechargeInput{
		Amount: 500, Method: "bkash", TransactionID: "TX123", SenderNumber: "01700000000",
	}, "", nil)
	require.NoError(t, err)

	approved, err := f.svc.ApproveRecharge(context.Background(), request.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestApproved, approved.Status)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, admin.ID, *approved.DecidedBy)
	assert.Equal(t, 600, f.users.users[user.ID].Balance)

	// Approval appends a new approved ledger entry; the pending one remains.
	approvedEntries := f.transactions.byType(models.TxRecharge)
	require.Len(t, approvedEntries, 1)
	assert.Equal(t, models.TxStatusApproved, approvedEntries[0].Status)
	assert.Len(t, f.transactions.byType(models.TxRechargeRequest), 1)

	notifications, err := f.notifications.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestApproveRechargeTwiceRejected(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", IsActive: true})
	admin := f.users.add(&models.User{Name: "admin", Email: "admin@test.dev", FFID: "ff-a", Role: models.RoleAdmin, IsActive: true})

	request, err := f.svc.SubmitRecharge(context.Background(), user.ID, SubmitRechargeInput{
		Amount: 500, Method: "bkash", TransactionID: "TX123", SenderNumber: "01700000000",
	}, "", nil)
	require.NoError(t, err)

	_, err = f.svc.ApproveRecharge(context.Background(), request.ID, admin.ID)
	require.NoError(t, err)

	_, err = f.svc.ApproveRecharge(context.Background(), request.ID, admin.ID)
	assert.ErrorIs(t, err, ErrRequestAlreadyDecided)

	// Credited exactly once.
	assert.Equal(t, 500, f.users.users[user.ID].Balance)
}

func TestRejectRechargeLeavesBalanceUntouched(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 100, IsActive: true})
	admin := f.users.add(&models.User{Name: "admin", Email: "admin@test.dev", FFID: "ff-a", Role: models.RoleAdmin, IsActive: true})

	request, err := f.svc.SubmitRecharge(context.Background(), user.ID, SubmitRechargeInput{
		Amount: 500, Method: "bkash", TransactionID: "TX123", SenderNumber: "01700000000",
	}, "", nil)
	require.NoError(t, err)

	rejected, err := f.svc.RejectRecharge(context.Background(), request.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestRejected, rejected.Status)
	assert.Equal(t, 100, f.users.users[user.ID].Balance)
	assert.Empty(t, f.transactions.byType(models.TxRecharge))
}

func TestSubmitWithdrawBelowMinimum(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 1000, IsActive: true})

	_, err := f.svc.SubmitWithdraw(context.Background(), user.ID, SubmitWithdrawInput{
		Amount: 199, Method: "bkash", AccountNumber: "01700000000",
	})
	assert.ErrorIs(t, err, ErrBelowMinWithdrawal)

	// Nothing recorded.
	assert.Empty(t, f.withdraws.requests)
	assert.Empty(t, f.transactions.transactions)
}

func TestSubmitWithdrawInsufficientBalance(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 250, IsActive: true})

	_, err := f.svc.SubmitWithdraw(context.Background(), user.ID, SubmitWithdrawInput{
		Amount: 300, Method: "bkash", AccountNumber: "01700000000",
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSubmitWithdrawDoesNotReserveBalance(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 500, IsActive: true})

	request, err := f.svc.SubmitWithdraw(context.Background(), user.ID, SubmitWithdrawInput{
		Amount: 300, Method: "bkash", AccountNumber: "01700000000",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RequestPending, request.Status)
	assert.Equal(t, 500, f.users.users[user.ID].Balance)

	pending := f.transactions.byType(models.TxWithdrawalRequest)
	require.Len(t, pending, 1)
	assert.Equal(t, -300, pending[0].Amount)
	assert.Equal(t, models.TxStatusPending, pending[0].Status)
}

func TestApproveWithdrawDebitsBalance(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 500, IsActive: true})
	admin := f.users.add(&models.User{Name: "admin", Email: "admin@test.dev", FFID: "ff-a", Role: models.RoleAdmin, IsActive: true})

	request, err := f.svc.SubmitWithdraw(context.Background(), user.ID, SubmitWithdrawInput{
		Amount: 300, Method: "bkash", AccountNumber: "01700000000",
	})
	require.NoError(t, err)

	approved, err := f.svc.ApproveWithdraw(context.Background(), request.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestApproved, approved.Status)
	assert.Equal(t, 200, f.users.users[user.ID].Balance)

	entries := f.transactions.byType(models.TxWithdrawal)
	require.Len(t, entries, 1)
	assert.Equal(t, -300, entries[0].Amount)
	assert.Equal(t, models.TxStatusApproved, entries[0].Status)
}

func TestApproveWithdrawRefusesOverdraft(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 500, IsActive: true})
	admin := f.users.add(&models.User{Name: "admin", Email: "admin@test.dev", FFID: "ff-a", Role: models.RoleAdmin, IsActive: true})

	request, err := f.svc.SubmitWithdraw(context.Background(), user.ID, SubmitWithdrawInput{
		Amount: 300, Method: "bkash", AccountNumber: "01700000000",
	})
	require.NoError(t, err)

	// The balance drops between submission and approval.
	f.users.users[user.ID].Balance = 100

	_, err = f.svc.ApproveWithdraw(context.Background(), request.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 100, f.users.users[user.ID].Balance)
	assert.Empty(t, f.transactions.byType(models.TxWithdrawal))
}

func TestRejectWithdrawNoRefundNeeded(t *testing.T) {
	f := newWalletFixture(t)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 500, IsActive: true})
	admin := f.users.add(&models.User{Name: "admin", Email: "admin@test.dev", FFID: "ff-a", Role: models.RoleAdmin, IsActive: true})

	request, err := f.svc.SubmitWithdraw(context.Background(), user.ID, SubmitWithdrawInput{
		Amount: 300, Method: "bkash", AccountNumber: "01700000000",
	})
	require.NoError(t, err)

	rejected, err := f.svc.RejectWithdraw(context.Background(), request.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RequestRejected, rejected.Status)
	assert.Equal(t, 500, f.users.users[user.ID].Balance)
}
