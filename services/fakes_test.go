package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/repositories"
)

// In-memory repository fakes shared by the service tests. They mirror the
// SQL guards of the real implementations: conditional debits, status-guarded
// transitions, and unique-constraint conflicts.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeHub struct {
	mu     sync.Mutex
	events []Event
	rooms  []string
}

func (h *fakeHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if event, ok := message.(Event); ok {
		h.events = append(h.events, event)
	}
	h.rooms = append(h.rooms, roomID)
}

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(user *models.User) *models.User {
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.FFID == user.FFID {
			return repositories.ErrUserFFIDConflict
		}
	}
	r.add(user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	for _, user := range r.users {
		if user.EmailConfirmationToken != nil && *user.EmailConfirmationToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	for _, user := range r.users {
		if user.PasswordResetToken != nil && *user.PasswordResetToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, search string) ([]models.User, error) {
	var users []models.User
	for _, user := range r.users {
		if search == "" || strings.Contains(strings.ToLower(user.Name), strings.ToLower(search)) {
			users = append(users, *user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	stored, ok := r.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	*stored = *user
	return nil
}

func (r *fakeUserRepo) SetActive(ctx context.Context, id int, active bool) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.IsActive = active
	return nil
}

func (r *fakeUserRepo) ConfirmEmail(ctx context.Context, id int) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.EmailConfirmed = true
	user.EmailConfirmationToken = nil
	return nil
}

func (r *fakeUserRepo) SetPasswordResetToken(ctx context.Context, id int, token string, expiresAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordResetToken = &token
	user.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	return len(r.users), nil
}

func (r *fakeUserRepo) CreditBalance(ctx context.Context, exec repositories.SQLExecutor, id int, amount int) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Balance += amount
	return nil
}

func (r *fakeUserRepo) DebitBalanceIfSufficient(ctx context.Context, exec repositories.SQLExecutor, id int, amount int) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if user.Balance < amount {
		return repositories.ErrInsufficientBalance
	}
	user.Balance -= amount
	return nil
}

func (r *fakeUserRepo) IncrementStats(ctx context.Context, exec repositories.SQLExecutor, id int, kills, wins, matches int) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Kills += kills
	user.Wins += wins
	user.Matches += matches
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (r *fakeTournamentRepo) add(t *models.Tournament) *models.Tournament {
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	r.tournaments[t.ID] = t
	return t
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.add(t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	stored, ok := r.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	*stored = *t
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) Count(ctx context.Context) (int, error) {
	return len(r.tournaments), nil
}

func (r *fakeTournamentRepo) TotalRevenue(ctx context.Context) (int, error) {
	total := 0
	for _, t := range r.tournaments {
		total += t.EntryFee * t.JoinedPlayers
	}
	return total, nil
}

func (r *fakeTournamentRepo) MarkLive(ctx context.Context, exec repositories.SQLExecutor, id int, roomID, roomPassword string, liveAt time.Time) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.StatusUpcoming {
		return repositories.ErrTournamentStatusChanged
	}
	t.Status = models.StatusLive
	t.RoomID = &roomID
	t.RoomPassword = &roomPassword
	t.LiveAt = &liveAt
	return nil
}

func (r *fakeTournamentRepo) MarkCompleted(ctx context.Context, exec repositories.SQLExecutor, id int, completedAt time.Time) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != models.StatusLive {
		return repositories.ErrTournamentStatusChanged
	}
	t.Status = models.StatusCompleted
	t.CompletedAt = &completedAt
	return nil
}

func (r *fakeTournamentRepo) IncrementJoinedPlayers(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.JoinedPlayers >= t.MaxPlayers {
		return repositories.ErrTournamentFull
	}
	t.JoinedPlayers++
	return nil
}

func (r *fakeTournamentRepo) ListDueForStatusUpdate(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if t.Status == models.StatusUpcoming || t.Status == models.StatusLive {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeParticipantRepo struct {
	participants []*models.Participant
	nextID       int
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1}
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	for _, existing := range r.participants {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrAlreadyJoined
		}
	}
	p.ID = r.nextID
	r.nextID++
	p.JoinedAt = time.Now()
	r.participants = append(r.participants, p)
	return nil
}

func (r *fakeParticipantRepo) FindByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) ListByUser(ctx context.Context, userID int) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, p := range r.participants {
		if p.UserID == userID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) UpdateKills(ctx context.Context, tournamentID, userID, kills int) error {
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.UserID == userID {
			p.Kills = kills
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) SetResult(ctx context.Context, exec repositories.SQLExecutor, id int, place int) error {
	for _, p := range r.participants {
		if p.ID == id {
			p.Result = &place
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

type fakeTransactionRepo struct {
	transactions []models.Transaction
	nextID       int
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{nextID: 1}
}

func (r *fakeTransactionRepo) Append(ctx context.Context, exec repositories.SQLExecutor, tx *models.Transaction) error {
	tx.ID = r.nextID
	r.nextID++
	tx.CreatedAt = time.Now()
	r.transactions = append(r.transactions, *tx)
	return nil
}

func (r *fakeTransactionRepo) ListByUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	var out []models.Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].UserID == userID {
			out = append(out, r.transactions[i])
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) byType(txType models.TransactionType) []models.Transaction {
	var out []models.Transaction
	for _, tx := range r.transactions {
		if tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out
}

type fakeResultRepo struct {
	results map[int]*models.TournamentResult
	nextID  int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[int]*models.TournamentResult), nextID: 1}
}

func (r *fakeResultRepo) Save(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error {
	if _, ok := r.results[result.TournamentID]; ok {
		return repositories.ErrResultAlreadyExists
	}
	result.ID = r.nextID
	r.nextID++
	result.CalculatedAt = time.Now()
	r.results[result.TournamentID] = result
	return nil
}

func (r *fakeResultRepo) GetByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.TournamentResult, error) {
	result, ok := r.results[tournamentID]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	copied := *result
	return &copied, nil
}

type fakeSettingsRepo struct {
	settings models.Settings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: models.Settings{
		ID:              1,
		AdminSignupCode: "secret-code",
		MinWithdrawal:   models.DefaultMinWithdrawal,
		PayoutPlaces:    models.DefaultPayoutPlaces,
	}}
}

func (r *fakeSettingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	copied := r.settings
	return &copied, nil
}

func (r *fakeSettingsRepo) Update(ctx context.Context, settings *models.Settings) error {
	r.settings = *settings
	r.settings.UpdatedAt = time.Now()
	return nil
}

type fakeNotificationRepo struct {
	notifications []models.Notification
	nextID        int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) Append(ctx context.Context, exec repositories.SQLExecutor, n *models.Notification) error {
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, id int) error {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].Read = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

type fakeRechargeRepo struct {
	requests map[int]*models.RechargeRequest
	nextID   int
}

func newFakeRechargeRepo() *fakeRechargeRepo {
	return &fakeRechargeRepo{requests: make(map[int]*models.RechargeRequest), nextID: 1}
}

func (r *fakeRechargeRepo) Create(ctx context.Context, exec repositories.SQLExecutor, req *models.RechargeRequest) error {
	req.ID = r.nextID
	r.nextID++
	req.CreatedAt = time.Now()
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRechargeRepo) GetByID(ctx context.Context, id int) (*models.RechargeRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRechargeRepo) List(ctx context.Context, status *models.RequestStatus) ([]models.RechargeRequest, error) {
	var out []models.RechargeRequest
	for _, req := range r.requests {
		if status == nil || req.Status == *status {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRechargeRepo) Decide(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RequestStatus, decidedBy int, decidedAt time.Time) error {
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	if req.Status != models.RequestPending {
		return repositories.ErrRequestAlreadyDecided
	}
	req.Status = status
	req.DecidedBy = &decidedBy
	req.DecidedAt = &decidedAt
	return nil
}

func (r *fakeRechargeRepo) CountPending(ctx context.Context) (int, error) {
	count := 0
	for _, req := range r.requests {
		if req.Status == models.RequestPending {
			count++
		}
	}
	return count, nil
}

type fakeWithdrawRepo struct {
	requests map[int]*models.WithdrawRequest
	nextID   int
}

func newFakeWithdrawRepo() *fakeWithdrawRepo {
	return &fakeWithdrawRepo{requests: make(map[int]*models.WithdrawRequest), nextID: 1}
}

func (r *fakeWithdrawRepo) Create(ctx context.Context, exec repositories.SQLExecutor, req *models.WithdrawRequest) error {
	req.ID = r.nextID
	r.nextID++
	req.CreatedAt = time.Now()
	r.requests[req.ID] = req
	return nil
}

func (r *fakeWithdrawRepo) GetByID(ctx context.Context, id int) (*models.WithdrawRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeWithdrawRepo) List(ctx context.Context, status *models.RequestStatus) ([]models.WithdrawRequest, error) {
	var out []models.WithdrawRequest
	for _, req := range r.requests {
		if status == nil || req.Status == *status {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeWithdrawRepo) Decide(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RequestStatus, decidedBy int, decidedAt time.Time) error {
	req, ok := r.requests[id]
	if !ok {
		return repositories.ErrRequestNotFound
	}
	if req.Status != models.RequestPending {
		return repositories.ErrRequestAlreadyDecided
	}
	req.Status = status
	req.DecidedBy = &decidedBy
	req.DecidedAt = &decidedAt
	return nil
}

func (r *fakeWithdrawRepo) CountPending(ctx context.Context) (int, error) {
	count := 0
	for _, req := range r.requests {
		if req.Status == models.RequestPending {
			count++
		}
	}
	return count, nil
}
