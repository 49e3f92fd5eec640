package routes

import (
	"github.com/ff-arena/tournament-platform/handlers"
	"github.com/ff-arena/tournament-platform/middleware"
	"github.com/ff-arena/tournament-platform/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	corsAllowedOrigins []string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	walletHandler *handlers.WalletHandler,
	adminHandler *handlers.AdminHandler,
	noticeHandler *handlers.NoticeHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	adminOnly := middleware.Authorize(models.RoleAdmin)

	// Public routes.
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Get("/auth/confirm-email", authHandler.ConfirmEmail)
	router.Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.Post("/auth/reset-password", authHandler.ResetPassword)

	router.Get("/ws/tournaments", webSocketHandler.TournamentsFeed)
	router.Get("/ws/me", webSocketHandler.UserFeed)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/results", tournamentHandler.GetResults)
		r.Get("/{tournamentID}/participants", participantHandler.ListByTournament)

		// Authenticated user routes.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/join", participantHandler.Join)
			r.Get("/{tournamentID}/room", participantHandler.RoomDetails)
		})

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}", tournamentHandler.Update)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Post("/{tournamentID}/go-live", tournamentHandler.GoLive)
			r.Post("/{tournamentID}/complete", tournamentHandler.Complete)
			r.Post("/{tournamentID}/banner", tournamentHandler.UploadBanner)
			r.Post("/{tournamentID}/kills", participantHandler.RecordKills)
		})
	})

	router.Get("/notices", noticeHandler.List)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", userHandler.GetProfile)
		r.Put("/me", userHandler.UpdateProfile)
		r.Post("/me/change-password", authHandler.ChangePassword)
		r.Get("/me/transactions", userHandler.ListTransactions)
		r.Get("/me/tournaments", participantHandler.MyTournaments)
		r.Get("/me/notifications", noticeHandler.ListNotifications)
		r.Post("/me/notifications/{notificationID}/read", noticeHandler.MarkNotificationRead)

		r.Post("/wallet/recharge", walletHandler.SubmitRecharge)
		r.Post("/wallet/withdraw", walletHandler.SubmitWithdraw)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Get("/stats", adminHandler.DashboardStats)
		r.Get("/settings", adminHandler.GetSettings)
		r.Put("/settings", adminHandler.UpdateSettings)

		r.Get("/users", userHandler.ListUsers)
		r.Post("/users/{userID}/balance", userHandler.AdjustBalance)
		r.Post("/users/{userID}/active", userHandler.SetActive)
		r.Delete("/users/{userID}", userHandler.Delete)

		r.Get("/recharge-requests", walletHandler.ListRechargeRequests)
		r.Post("/recharge-requests/{requestID}/approve", walletHandler.ApproveRecharge)
		r.Post("/recharge-requests/{requestID}/reject", walletHandler.RejectRecharge)
		r.Get("/withdraw-requests", walletHandler.ListWithdrawRequests)
		r.Post("/withdraw-requests/{requestID}/approve", walletHandler.ApproveWithdraw)
		r.Post("/withdraw-requests/{requestID}/reject", walletHandler.RejectWithdraw)

		r.Post("/notices", noticeHandler.Create)
		r.Delete("/notices/{noticeID}", noticeHandler.Delete)
	})
}
