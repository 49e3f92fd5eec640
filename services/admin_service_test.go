package services

import (
	"context"
	"testing"
	"time"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardStats(t *testing.T) {
	users := newFakeUserRepo()
	tournaments := newFakeTournamentRepo()
	recharges := newFakeRechargeRepo()
	withdraws := newFakeWithdrawRepo()
	settings := newFakeSettingsRepo()

	users.add(&models.User{Name: "a", Email: "a@test.dev", FFID: "ff-a", IsActive: true})
	users.add(&models.User{Name: "b", Email: "b@test.dev", FFID: "ff-b", IsActive: true})

	tournaments.add(&models.Tournament{Title: "One", EntryFee: 50, JoinedPlayers: 10, Status: models.StatusCompleted})
	tournaments.add(&models.Tournament{Title: "Two", EntryFee: 20, JoinedPlayers: 5, Status: models.StatusUpcoming})

	recharges.Create(context.Background(), nil, &models.RechargeRequest{UserID: 1, Amount: 100, Status: models.RequestPending})
	recharges.Create(context.Background(), nil, &models.RechargeRequest{UserID: 2, Amount: 100, Status: models.RequestApproved})
	withdraws.Create(context.Background(), nil, &models.WithdrawRequest{UserID: 1, Amount: 200, Status: models.RequestPending})

	svc := NewAdminService(users, tournaments, recharges, withdraws, settings)

	stats, err := svc.GetDashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalTournaments)
	assert.Equal(t, 50*10+20*5, stats.TotalRevenue)
	assert.Equal(t, 1, stats.PendingRechargeRequests)
	assert.Equal(t, 1, stats.PendingWithdrawRequests)
}

func TestUpdateSettings(t *testing.T) {
	settings := newFakeSettingsRepo()
	svc := NewAdminService(newFakeUserRepo(), newFakeTournamentRepo(), newFakeRechargeRepo(), newFakeWithdrawRepo(), settings)

	newCode := "rotated-code"
	newMin := 500
	updated, err := svc.UpdateSettings(context.Background(), UpdateSettingsInput{
		AdminSignupCode: &newCode,
		MinWithdrawal:   &newMin,
	})
	require.NoError(t, err)

	assert.Equal(t, "rotated-code", updated.AdminSignupCode)
	assert.Equal(t, 500, updated.MinWithdrawal)
	// Untouched fields keep their values.
	assert.Equal(t, models.DefaultPayoutPlaces, updated.PayoutPlaces)

	t.Run("rejects empty code", func(t *testing.T) {
		empty := ""
		_, err := svc.UpdateSettings(context.Background(), UpdateSettingsInput{AdminSignupCode: &empty})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("rejects non-positive minimum", func(t *testing.T) {
		zero := 0
		_, err := svc.UpdateSettings(context.Background(), UpdateSettingsInput{MinWithdrawal: &zero})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestAdjustBalance(t *testing.T) {
	users := newFakeUserRepo()
	transactions := newFakeTransactionRepo()
	hub := &fakeHub{}
	svc := NewUserService(fakeTxManager{}, users, transactions, hub, testLogger())

	user := users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 100, IsActive: true})

	updated, err := svc.AdjustBalance(context.Background(), user.ID, 99, 150)
	require.NoError(t, err)
	assert.Equal(t, 250, updated.Balance)

	entries := transactions.byType(models.TxAdminAdded)
	require.Len(t, entries, 1)
	assert.Equal(t, 150, entries[0].Amount)

	t.Run("debit cannot overdraw", func(t *testing.T) {
		_, err := svc.AdjustBalance(context.Background(), user.ID, 99, -1000)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, 250, users.users[user.ID].Balance)
	})

	t.Run("zero delta rejected", func(t *testing.T) {
		_, err := svc.AdjustBalance(context.Background(), user.ID, 99, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestSettingsDrivePayoutDepthAndMinimum(t *testing.T) {
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	f := newTournamentFixture(t, now)
	f.settings.settings.PayoutPlaces = 1

	liveAt := now.Add(-2 * time.Hour)
	tournament := f.tournaments.add(&models.Tournament{
		Title:      "Shallow Payout",
		Status:     models.StatusLive,
		PrizePool:  1000,
		KillReward: 10,
		MaxPlayers: 48,
		LiveAt:     &liveAt,
	})

	first := f.addUser("first", 0)
	second := f.addUser("second", 0)
	f.addParticipant(tournament.ID, first, 4)
	f.addParticipant(tournament.ID, second, 2)

	_, err := f.svc.Complete(context.Background(), tournament.ID)
	require.NoError(t, err)

	// Place 1 gets prize plus kill rewards; place 2 gets the prize share but
	// no kill rewards past the payout depth.
	assert.Equal(t, 1000+4*10, f.users.users[first.ID].Balance)
	assert.Equal(t, 500, f.users.users[second.ID].Balance)
}
