package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/repositories"
	"github.com/ff-arena/tournament-platform/storage"
)

const (
	// Tournaments go live this long before their scheduled start.
	goLiveLead = 10 * time.Minute
	// Live tournaments complete automatically after this duration.
	liveDuration = 2 * time.Hour

	roomPasswordLength = 6
)

type CreateTournamentInput struct {
	Title      string                `json:"title"`
	Type       models.TournamentType `json:"type"`
	EntryFee   int                   `json:"entry_fee"`
	PrizePool  int                   `json:"prize_pool"`
	KillReward int                   `json:"kill_reward"`
	MaxPlayers int                   `json:"max_players"`
	Schedule   time.Time             `json:"schedule"`
}

type TournamentService interface {
	Create(ctx context.Context, createdBy int, input CreateTournamentInput) (*models.Tournament, error)
	Update(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]models.Tournament, error)
	GetResults(ctx context.Context, id int) (*models.TournamentResult, error)
	UploadBanner(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)

	// GoLive and Complete are the admin-triggered transitions.
	GoLive(ctx context.Context, id int) (*models.Tournament, error)
	Complete(ctx context.Context, id int) (*models.Tournament, error)

	// AutoUpdateStatuses applies every automatic transition that is currently
	// due. The scheduler calls it periodically.
	AutoUpdateStatuses(ctx context.Context) error
}

type tournamentService struct {
	txManager        repositories.TxManager
	tournamentRepo   repositories.TournamentRepository
	participantRepo  repositories.ParticipantRepository
	userRepo         repositories.UserRepository
	transactionRepo  repositories.TransactionRepository
	resultRepo       repositories.ResultRepository
	notificationRepo repositories.NotificationRepository
	settingsRepo     repositories.SettingsRepository
	uploader         storage.FileUploader
	hub              EventBroadcaster
	logger           *slog.Logger

	now func() time.Time
}

func NewTournamentService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
	resultRepo repositories.ResultRepository,
	notificationRepo repositories.NotificationRepository,
	settingsRepo repositories.SettingsRepository,
	uploader storage.FileUploader,
	hub EventBroadcaster,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txManager:        txManager,
		tournamentRepo:   tournamentRepo,
		participantRepo:  participantRepo,
		userRepo:         userRepo,
		transactionRepo:  transactionRepo,
		resultRepo:       resultRepo,
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
		uploader:         uploader,
		hub:              hub,
		logger:           logger,
		now:              time.Now,
	}
}

func validateTournamentInput(input CreateTournamentInput) error {
	if input.Title == "" {
		return ErrTitleRequired
	}
	if input.MaxPlayers <= 0 {
		return ErrInvalidCapacity
	}
	if input.EntryFee < 0 || input.PrizePool < 0 || input.KillReward < 0 {
		return ErrValidationFailed
	}
	if input.Type != models.TypeSolo && input.Type != models.TypeDuo {
		return ErrValidationFailed
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, createdBy int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}
	if !input.Schedule.After(s.now()) {
		return nil, ErrInvalidSchedule
	}

	tournament := &models.Tournament{
		Title:      input.Title,
		Type:       input.Type,
		EntryFee:   input.EntryFee,
		PrizePool:  input.PrizePool,
		KillReward: input.KillReward,
		MaxPlayers: input.MaxPlayers,
		Schedule:   input.Schedule,
		Status:     models.StatusUpcoming,
		CreatedBy:  createdBy,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.hub.BroadcastToRoom(RoomTournaments, Event{Type: EventTournamentUpdated, Payload: tournament})
	return tournament, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusUpcoming {
		return nil, ErrInvalidStatusChange
	}

	tournament.Title = input.Title
	tournament.Type = input.Type
	tournament.EntryFee = input.EntryFee
	tournament.PrizePool = input.PrizePool
	tournament.KillReward = input.KillReward
	tournament.MaxPlayers = input.MaxPlayers
	tournament.Schedule = input.Schedule

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(RoomTournaments, Event{Type: EventTournamentUpdated, Payload: tournament})
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	s.hub.BroadcastToRoom(RoomTournaments, Event{Type: EventTournamentDeleted, Payload: map[string]int{"id": id}})
	return nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	tournament.Participants = make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		tournament.Participants = append(tournament.Participants, *p)
	}

	if tournament.Status == models.StatusCompleted {
		result, err := s.resultRepo.GetByTournament(ctx, nil, id)
		if err == nil {
			tournament.Results = result
		} else if !errors.Is(err, repositories.ErrResultNotFound) {
			return nil, err
		}
	}

	if tournament.BannerKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*tournament.BannerKey)
		tournament.BannerURL = &url
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *tournamentService) GetResults(ctx context.Context, id int) (*models.TournamentResult, error) {
	result, err := s.resultRepo.GetByTournament(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func (s *tournamentService) UploadBanner(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/banner", id)
	uploadResult, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	if err := s.tournamentRepo.UpdateBannerKey(ctx, id, &uploadResult.Key); err != nil {
		return nil, err
	}
	tournament.BannerKey = &uploadResult.Key
	tournament.BannerURL = &uploadResult.Location
	return tournament, nil
}

func (s *tournamentService) GoLive(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusUpcoming {
		return nil, ErrInvalidStatusChange
	}
	return s.markLive(ctx, tournament)
}

func (s *tournamentService) Complete(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusLive {
		return nil, ErrInvalidStatusChange
	}
	return s.markCompleted(ctx, tournament)
}

func (s *tournamentService) AutoUpdateStatuses(ctx context.Context) error {
	now := s.now()
	due, err := s.tournamentRepo.ListDueForStatusUpdate(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list tournaments due for status update: %w", err)
	}

	for _, t := range due {
		switch {
		case goLiveDue(t, now):
			if _, err := s.markLive(ctx, t); err != nil {
				if errors.Is(err, repositories.ErrTournamentStatusChanged) {
					continue // another session won the transition
				}
				s.logger.Error("auto go-live failed",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
			}
		case completionDue(t, now):
			if _, err := s.markCompleted(ctx, t); err != nil {
				if errors.Is(err, repositories.ErrTournamentStatusChanged) {
					continue
				}
				s.logger.Error("auto completion failed",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
			}
		}
	}
	return nil
}

// goLiveDue reports whether the automatic upcoming -> live condition holds:
// now inside [schedule - 10m, schedule).
func goLiveDue(t *models.Tournament, now time.Time) bool {
	if t.Status != models.StatusUpcoming {
		return false
	}
	windowStart := t.Schedule.Add(-goLiveLead)
	return !now.Before(windowStart) && now.Before(t.Schedule)
}

// completionDue reports whether the automatic live -> completed condition
// holds: now at or past live_at + 2h.
func completionDue(t *models.Tournament, now time.Time) bool {
	if t.Status != models.StatusLive || t.LiveAt == nil {
		return false
	}
	return !now.Before(t.LiveAt.Add(liveDuration))
}

func (s *tournamentService) markLive(ctx context.Context, tournament *models.Tournament) (*models.Tournament, error) {
	roomID, roomPassword, err := generateRoomCredentials()
	if err != nil {
		return nil, fmt.Errorf("failed to generate room credentials: %w", err)
	}
	liveAt := s.now()

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.tournamentRepo.MarkLive(ctx, exec, tournament.ID, roomID, roomPassword, liveAt)
	})
	if err != nil {
		return nil, err
	}

	tournament.Status = models.StatusLive
	tournament.RoomID = &roomID
	tournament.RoomPassword = &roomPassword
	tournament.LiveAt = &liveAt

	s.logger.Info("tournament went live",
		slog.Int("tournament_id", tournament.ID), slog.String("title", tournament.Title))
	s.hub.BroadcastToRoom(RoomTournaments, Event{Type: EventTournamentUpdated, Payload: tournament})
	return tournament, nil
}

func (s *tournamentService) markCompleted(ctx context.Context, tournament *models.Tournament) (*models.Tournament, error) {
	completedAt := s.now()

	var result *models.TournamentResult
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.MarkCompleted(ctx, exec, tournament.ID, completedAt); err != nil {
			return err
		}
		var distErr error
		result, distErr = s.distributePrizes(ctx, exec, tournament)
		return distErr
	})
	if err != nil {
		return nil, err
	}

	tournament.Status = models.StatusCompleted
	tournament.CompletedAt = &completedAt
	tournament.Results = result

	s.logger.Info("tournament completed",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("total_players", result.TotalPlayers),
		slog.Int("winners", len(result.Winners)))
	s.hub.BroadcastToRoom(RoomTournaments, Event{Type: EventTournamentUpdated, Payload: tournament})
	return tournament, nil
}

// Prize shares by place, in percent of the prize pool.
var prizeShares = [...]int{100, 50, 25}

// distributePrizes ranks participants by kills and pays out the top places.
// It must run inside the completion transaction: the existing-results check
// plus the unique constraint on tournament_results make a second invocation
// a no-op, so a tournament can never pay out twice.
func (s *tournamentService) distributePrizes(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) (*models.TournamentResult, error) {
	if existing, err := s.resultRepo.GetByTournament(ctx, exec, tournament.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repositories.ErrResultNotFound) {
		return nil, err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	// Kills descending; ties keep join order (ListByTournament returns them
	// ordered by joined_at).
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Kills > participants[j].Kills
	})

	payoutPlaces := models.DefaultPayoutPlaces
	if settings, err := s.settingsRepo.Get(ctx); err == nil && settings.PayoutPlaces > 0 {
		payoutPlaces = settings.PayoutPlaces
	}

	result := &models.TournamentResult{
		TournamentID: tournament.ID,
		TotalPlayers: len(participants),
	}

	for i, p := range participants {
		place := i + 1

		if place <= len(prizeShares) {
			prize := tournament.PrizePool * prizeShares[i] / 100
			// Kill rewards are paid to ranked winners only, up to the
			// configured payout depth.
			killReward := 0
			if place <= payoutPlaces {
				killReward = p.Kills * tournament.KillReward
			}
			payout := prize + killReward

			if err := s.userRepo.CreditBalance(ctx, exec, p.UserID, payout); err != nil {
				return nil, fmt.Errorf("failed to credit winner %d: %w", p.UserID, err)
			}
			tournamentID := tournament.ID
			entry := &models.Transaction{
				UserID:       p.UserID,
				Type:         models.TxTournamentWinning,
				Amount:       prize,
				Status:       models.TxStatusCompleted,
				TournamentID: &tournamentID,
			}
			if err := s.transactionRepo.Append(ctx, exec, entry); err != nil {
				return nil, fmt.Errorf("failed to append winning transaction: %w", err)
			}
			if killReward > 0 {
				entry := &models.Transaction{
					UserID:       p.UserID,
					Type:         models.TxKillReward,
					Amount:       killReward,
					Status:       models.TxStatusCompleted,
					TournamentID: &tournamentID,
				}
				if err := s.transactionRepo.Append(ctx, exec, entry); err != nil {
					return nil, fmt.Errorf("failed to append kill reward transaction: %w", err)
				}
			}

			notification := &models.Notification{
				UserID:       p.UserID,
				Title:        "Tournament winnings",
				Message:      fmt.Sprintf("You placed #%d in %s and won %d!", place, tournament.Title, payout),
				TournamentID: &tournamentID,
			}
			if err := s.notificationRepo.Append(ctx, exec, notification); err != nil {
				return nil, fmt.Errorf("failed to append winner notification: %w", err)
			}

			result.Winners = append(result.Winners, models.WinnerEntry{
				UserID: p.UserID,
				Name:   p.Name,
				Place:  place,
				Prize:  prize,
				Kills:  p.Kills,
			})
		}

		if err := s.participantRepo.SetResult(ctx, exec, p.ID, place); err != nil {
			return nil, fmt.Errorf("failed to set participant result: %w", err)
		}

		wins := 0
		if place == 1 {
			wins = 1
		}
		if err := s.userRepo.IncrementStats(ctx, exec, p.UserID, p.Kills, wins, 1); err != nil {
			return nil, fmt.Errorf("failed to update user stats: %w", err)
		}
	}

	if err := s.resultRepo.Save(ctx, exec, result); err != nil {
		if errors.Is(err, repositories.ErrResultAlreadyExists) {
			return nil, ErrResultsAlreadyExist
		}
		return nil, err
	}
	return result, nil
}

func (s *tournamentService) getTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

// generateRoomCredentials produces the out-of-band game room entry pair: a
// 9-digit numeric room id and a 6-character password drawn from A-Z0-9.
func generateRoomCredentials() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900_000_000))
	if err != nil {
		return "", "", err
	}
	roomID := fmt.Sprintf("%d", n.Int64()+100_000_000)

	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	password := make([]byte, roomPasswordLength)
	randomBytes := make([]byte, roomPasswordLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	for i, rb := range randomBytes {
		password[i] = charset[int(rb)%len(charset)]
	}
	return roomID, string(password), nil
}
