package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/tilhona/backend/internal/auth"
	"github.com/tilhona/backend/internal/database"
	"github.com/tilhona/backend/internal/evaluator"
	"github.com/tilhona/backend/internal/exercises"
	"github.com/tilhona/backend/internal/middleware"
	"github.com/tilhona/backend/internal/sessions"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Speech capabilities are not bundled; the evaluator degrades to
	// reporting them unavailable until a provider is plugged in.
	eval := evaluator.New(nil, nil)

	authHandler := auth.NewHandler(db)

	exerciseStore := exercises.NewStore(db)
	exerciseService := exercises.NewService(exerciseStore, eval)
	exerciseHandler := exercises.NewHandler(exerciseService)

	sessionStore := sessions.NewStore(db)
	sessionService := sessions.NewService(sessionStore, eval)
	sessionHandler := sessions.NewHandler(sessionService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/exercises", exerciseHandler.ListExercises).Methods("GET")
	protected.HandleFunc("/exercises/{id:[0-9]+}", exerciseHandler.GetExercise).Methods("GET")
	protected.HandleFunc("/exercises/{id:[0-9]+}/check-answer", exerciseHandler.CheckAnswer).Methods("POST")
	protected.HandleFunc("/attempts", exerciseHandler.ListAttempts).Methods("GET")
	protected.HandleFunc("/progress", exerciseHandler.GetProgress).Methods("GET")

	protected.HandleFunc("/test-sessions", sessionHandler.Start).Methods("POST")
	protected.HandleFunc("/test-sessions/{id:[0-9]+}", sessionHandler.Get).Methods("GET")
	protected.HandleFunc("/test-sessions/{id:[0-9]+}/submit-response", sessionHandler.SubmitResponse).Methods("POST")
	protected.HandleFunc("/test-sessions/{id:[0-9]+}/submit", sessionHandler.Submit).Methods("POST")
	protected.HandleFunc("/test-sessions/{id:[0-9]+}/abandon", sessionHandler.Abandon).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
