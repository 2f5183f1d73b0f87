package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/khelzone/arena-backend/handlers"
	"github.com/khelzone/arena-backend/middleware"
)

// SetupRoutes настраивает маршруты API поверх переданного роутера.
func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	userHandler *handlers.UserHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.NewAuthenticator(jwtSecret)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты просмотра
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/results", tournamentHandler.ResultsHandler)

		// Защищённые маршруты
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/join", tournamentHandler.JoinHandler)
			r.Post("/{tournamentID}/start", tournamentHandler.StartHandler)
			r.Post("/{tournamentID}/cancel", tournamentHandler.CancelHandler)
		})
	})

	router.Route("/users", func(r chi.Router) {
		// Публичные проекции профиля
		r.Get("/{userID}/tournaments", userHandler.TournamentHistoryHandler)
		r.Get("/{userID}/matches", userHandler.MatchHistoryHandler)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/{matchID}/start", matchHandler.StartHandler)
		r.Post("/{matchID}/result", matchHandler.SubmitResultHandler)
		r.Post("/{matchID}/proof", matchHandler.UploadProofHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
