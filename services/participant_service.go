package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ff-arena/tournament-platform/models"
	"github.com/ff-arena/tournament-platform/repositories"
)

type JoinTournamentInput struct {
	Name        string          `json:"name"`
	FFID        string          `json:"ffid"`
	PlayMode    models.PlayMode `json:"play_mode"`
	PartnerName string          `json:"partner_name,omitempty"`
	PartnerFFID string          `json:"partner_ffid,omitempty"`
}

// RoomDetails is the out-of-band game room entry pair, visible only to
// joined participants while the tournament is live.
type RoomDetails struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
}

type ParticipantService interface {
	JoinTournament(ctx context.Context, tournamentID, userID int, input JoinTournamentInput) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	MyTournaments(ctx context.Context, userID int) ([]*models.Participant, error)
	GetRoomDetails(ctx context.Context, tournamentID, userID int) (*RoomDetails, error)

	// RecordKills is admin-only and accepted while the tournament is live.
	RecordKills(ctx context.Context, tournamentID, userID, kills int) error
}

type participantService struct {
	txManager       repositories.TxManager
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
	transactionRepo repositories.TransactionRepository
	hub             EventBroadcaster
	logger          *slog.Logger
}

func NewParticipantService(
	txManager repositories.TxManager,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	transactionRepo repositories.TransactionRepository,
	hub EventBroadcaster,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		txManager:       txManager,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *participantService) JoinTournament(ctx context.Context, tournamentID, userID int, input JoinTournamentInput) (*models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	// Precondition order: open status, capacity, no duplicate entry, then
	// balance. The capacity and duplicate checks are re-enforced inside the
	// transaction by the joined_players guard and the unique constraint.
	if tournament.Status != models.StatusUpcoming {
		return nil, ErrTournamentNotOpen
	}
	if tournament.JoinedPlayers >= tournament.MaxPlayers {
		return nil, ErrTournamentFull
	}

	if _, err := s.participantRepo.FindByTournamentAndUser(ctx, tournamentID, userID); err == nil {
		return nil, ErrAlreadyJoined
	} else if !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, err
	}

	playMode := input.PlayMode
	if playMode == "" {
		playMode = models.PlaySolo
	}
	if tournament.Type == models.TypeSolo && playMode == models.PlayDuo {
		return nil, ErrValidationFailed
	}

	entryFee := tournament.EntryFee
	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		Name:         input.Name,
		FFID:         input.FFID,
		PlayMode:     playMode,
	}
	if playMode == models.PlayDuo {
		if input.PartnerName == "" || input.PartnerFFID == "" {
			return nil, ErrPartnerRequired
		}
		// Duo entries pay for both slots.
		entryFee *= 2
		participant.PartnerName = &input.PartnerName
		participant.PartnerFFID = &input.PartnerFFID
	}
	participant.EntryPaid = entryFee

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Balance < entryFee {
		return nil, ErrInsufficientBalance
	}
	if participant.Name == "" {
		participant.Name = user.Name
	}
	if participant.FFID == "" {
		participant.FFID = user.FFID
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrAlreadyJoined) {
				return ErrAlreadyJoined
			}
			return fmt.Errorf("failed to create participant: %w", err)
		}
		if err := s.tournamentRepo.IncrementJoinedPlayers(ctx, exec, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrTournamentFull) {
				return ErrTournamentFull
			}
			return err
		}
		if err := s.userRepo.DebitBalanceIfSufficient(ctx, exec, userID, entryFee); err != nil {
			if errors.Is(err, repositories.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			return err
		}
		entry := &models.Transaction{
			UserID:       userID,
			Type:         models.TxTournamentEntry,
			Amount:       -entryFee,
			Status:       models.TxStatusCompleted,
			TournamentID: &tournamentID,
		}
		return s.transactionRepo.Append(ctx, exec, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user joined tournament",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID),
		slog.Int("entry_paid", entryFee))

	tournament.JoinedPlayers++
	s.hub.BroadcastToRoom(RoomTournaments, Event{Type: EventTournamentUpdated, Payload: tournament})
	s.hub.BroadcastToRoom(UserRoom(userID), Event{Type: EventBalanceUpdated, Payload: map[string]int{"balance": user.Balance - entryFee}})

	return participant, nil
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	return s.participantRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *participantService) MyTournaments(ctx context.Context, userID int) ([]*models.Participant, error) {
	return s.participantRepo.ListByUser(ctx, userID)
}

func (s *participantService) GetRoomDetails(ctx context.Context, tournamentID, userID int) (*RoomDetails, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if _, err := s.participantRepo.FindByTournamentAndUser(ctx, tournamentID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, err
	}

	if tournament.Status != models.StatusLive || tournament.RoomID == nil || tournament.RoomPassword == nil {
		return nil, ErrRoomNotAvailable
	}

	return &RoomDetails{
		RoomID:       *tournament.RoomID,
		RoomPassword: *tournament.RoomPassword,
	}, nil
}

func (s *participantService) RecordKills(ctx context.Context, tournamentID, userID, kills int) error {
	if kills < 0 {
		return ErrValidationFailed
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.Status != models.StatusLive {
		return ErrInvalidStatusChange
	}

	if err := s.participantRepo.UpdateKills(ctx, tournamentID, userID, kills); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}
