package services

import (
	"context"
	"testing"
	"time"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type participantFixture struct {
	svc          ParticipantService
	users        *fakeUserRepo
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	transactions *fakeTransactionRepo
	hub          *fakeHub
}

func newParticipantFixture(t *testing.T) *participantFixture {
	t.Helper()

	f := &participantFixture{
		users:        newFakeUserRepo(),
		tournaments:  newFakeTournamentRepo(),
		participants: newFakeParticipantRepo(),
		transactions: newFakeTransactionRepo(),
		hub:          &fakeHub{},
	}
	f.svc = NewParticipantService(
		fakeTxManager{},
		f.participants,
		f.tournaments,
		f.users,
		f.transactions,
		f.hub,
		testLogger(),
	)
	return f
}

func (f *participantFixture) addUpcomingTournament(entryFee, maxPlayers int, tournamentType models.TournamentType) *models.Tournament {
	return f.tournaments.add(&models.Tournament{
		Title:      "Evening Clash",
		Type:       tournamentType,
		EntryFee:   entryFee,
		MaxPlayers: maxPlayers,
		Status:     models.StatusUpcoming,
		Schedule:   time.Now().Add(time.Hour),
	})
}

func TestJoinTournamentDebitsEntryFee(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(50, 48, models.TypeSolo)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 120, IsActive: true})

	participant, err := f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{
		Name:     "player",
		FFID:     "ff-1",
		PlayMode: models.PlaySolo,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, participant.EntryPaid)
	assert.Equal(t, 70, f.users.users[user.ID].Balance)
	assert.Equal(t, 1, f.tournaments.tournaments[tournament.ID].JoinedPlayers)

	entries := f.transactions.byType(models.TxTournamentEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, -50, entries[0].Amount)
	assert.Equal(t, models.TxStatusCompleted, entries[0].Status)
	require.NotNil(t, entries[0].TournamentID)
	assert.Equal(t, tournament.ID, *entries[0].TournamentID)
}

func TestJoinTournamentDuoDoublesFee(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(50, 48, models.TypeDuo)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 120, IsActive: true})

	participant, err := f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{
		Name:        "player",
		FFID:        "ff-1",
		PlayMode:    models.PlayDuo,
		PartnerName: "buddy",
		PartnerFFID: "ff-2",
	})
	require.NoError(t, err)

	assert.Equal(t, 100, participant.EntryPaid)
	assert.Equal(t, 20, f.users.users[user.ID].Balance)
}

func TestJoinTournamentDuoRequiresPartner(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(50, 48, models.TypeDuo)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 500, IsActive: true})

	_, err := f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{
		Name:     "player",
		FFID:     "ff-1",
		PlayMode: models.PlayDuo,
	})
	assert.ErrorIs(t, err, ErrPartnerRequired)
	assert.Equal(t, 500, f.users.users[user.ID].Balance)
	assert.Empty(t, f.participants.participants)
}

func TestJoinTournamentInsufficientBalance(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(50, 48, models.TypeSolo)
	user := f.users.add(&models.User{Name: "broke", Email: "broke@test.dev", FFID: "ff-1", Balance: 49, IsActive: true})

	_, err := f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 0, f.tournaments.tournaments[tournament.ID].JoinedPlayers)
	assert.Empty(t, f.transactions.transactions)
}

func TestJoinTournamentTwiceRejected(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(50, 48, models.TypeSolo)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 200, IsActive: true})

	_, err := f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	require.NoError(t, err)

	_, err = f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	// The fee was only charged once.
	assert.Equal(t, 150, f.users.users[user.ID].Balance)
}

func TestJoinTournamentFull(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(10, 1, models.TypeSolo)
	first := f.users.add(&models.User{Name: "first", Email: "first@test.dev", FFID: "ff-1", Balance: 100, IsActive: true})
	second := f.users.add(&models.User{Name: "second", Email: "second@test.dev", FFID: "ff-2", Balance: 100, IsActive: true})

	_, err := f.svc.JoinTournament(context.Background(), tournament.ID, first.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	require.NoError(t, err)

	_, err = f.svc.JoinTournament(context.Background(), tournament.ID, second.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	assert.ErrorIs(t, err, ErrTournamentFull)
	assert.Equal(t, 100, f.users.users[second.ID].Balance)
}

func TestJoinTournamentNotOpen(t *testing.T) {
	f := newParticipantFixture(t)
	liveAt := time.Now()
	tournament := f.tournaments.add(&models.Tournament{
		Title:      "Running",
		Type:       models.TypeSolo,
		EntryFee:   50,
		MaxPlayers: 48,
		Status:     models.StatusLive,
		LiveAt:     &liveAt,
	})
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 200, IsActive: true})

	_, err := f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestRoomDetailsVisibility(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(50, 48, models.TypeSolo)
	joined := f.users.add(&models.User{Name: "joined", Email: "joined@test.dev", FFID: "ff-1", Balance: 100, IsActive: true})
	outsider := f.users.add(&models.User{Name: "outsider", Email: "outsider@test.dev", FFID: "ff-2", Balance: 100, IsActive: true})

	_, err := f.svc.JoinTournament(context.Background(), tournament.ID, joined.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	require.NoError(t, err)

	t.Run("hidden while upcoming", func(t *testing.T) {
		_, err := f.svc.GetRoomDetails(context.Background(), tournament.ID, joined.ID)
		assert.ErrorIs(t, err, ErrRoomNotAvailable)
	})

	require.NoError(t, f.tournaments.MarkLive(context.Background(), nil, tournament.ID, "123456789", "ABC123", time.Now()))

	t.Run("visible to participant while live", func(t *testing.T) {
		details, err := f.svc.GetRoomDetails(context.Background(), tournament.ID, joined.ID)
		require.NoError(t, err)
		assert.Equal(t, "123456789", details.RoomID)
		assert.Equal(t, "ABC123", details.RoomPassword)
	})

	t.Run("hidden from non-participant", func(t *testing.T) {
		_, err := f.svc.GetRoomDetails(context.Background(), tournament.ID, outsider.ID)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})
}

func TestRecordKillsOnlyWhileLive(t *testing.T) {
	f := newParticipantFixture(t)
	tournament := f.addUpcomingTournament(50, 48, models.TypeSolo)
	user := f.users.add(&models.User{Name: "player", Email: "player@test.dev", FFID: "ff-1", Balance: 100, IsActive: true})

	_, err := f.svc.JoinTournament(context.Background(), tournament.ID, user.ID, JoinTournamentInput{PlayMode: models.PlaySolo})
	require.NoError(t, err)

	err = f.svc.RecordKills(context.Background(), tournament.ID, user.ID, 5)
	assert.ErrorIs(t, err, ErrInvalidStatusChange)

	require.NoError(t, f.tournaments.MarkLive(context.Background(), nil, tournament.ID, "123456789", "ABC123", time.Now()))

	require.NoError(t, f.svc.RecordKills(context.Background(), tournament.ID, user.ID, 5))
	p, err := f.participants.FindByTournamentAndUser(context.Background(), tournament.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Kills)

	err = f.svc.RecordKills(context.Background(), tournament.ID, user.ID, -1)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
