package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"studyPulseAPI/handlers"
	"studyPulseAPI/internal/notification"
	"studyPulseAPI/middleware"
	"studyPulseAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool           *pgxpool.Pool
	redisClient      *redis.Client
	streakService    *services.StreakService
	sessionService   *services.SessionService
	settingsService  *services.SettingsService
	timerService     *services.TimerService
	analyticsService *services.AnalyticsService
	fcmService       *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	streakService = services.NewStreakService(dbPool)
	sessionService = services.NewSessionService(dbPool, streakService)
	settingsService = services.NewSettingsService(dbPool)
	timerService = services.NewTimerService(sessionService, settingsService)
	analyticsService = services.NewAnalyticsService(dbPool, streakService)

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Printf("Warning: invalid REDIS_URL, running without report cache: %v", err)
		} else {
			redisClient = redis.NewClient(opts)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Redis unreachable, running without report cache: %v", err)
				redisClient = nil
			} else {
				analyticsService.SetCache(redisClient)
				log.Println("Redis report cache initialized successfully")
			}
		}
	}

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		streakService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	timerService.StartSweeper()
	defer timerService.StopSweeper()

	// Initialize handlers
	timerHandler := handlers.NewTimerHandler(timerService, settingsService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, streakService)
	ambienceHandler := handlers.NewAmbienceHandler()

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "studyPulse-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	// Ambience is stateless generated audio, no auth needed.
	api.HandleFunc("/ambience", ambienceHandler.GetAmbience).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/timer", timerHandler.GetTimerState).Methods("GET")
	protected.HandleFunc("/timer/start", timerHandler.StartTimer).Methods("POST")
	protected.HandleFunc("/timer/pause", timerHandler.PauseTimer).Methods("POST")
	protected.HandleFunc("/timer/reset", timerHandler.ResetTimer).Methods("POST")
	protected.HandleFunc("/timer/skip", timerHandler.SkipTimer).Methods("POST")
	protected.HandleFunc("/timer/settings", timerHandler.GetSettings).Methods("GET")
	protected.HandleFunc("/timer/settings", timerHandler.UpdateSettings).Methods("PUT")

	protected.HandleFunc("/sessions", sessionHandler.RecordSession).Methods("POST")
	protected.HandleFunc("/sessions", sessionHandler.ListSessions).Methods("GET")

	protected.HandleFunc("/stats/daily", sessionHandler.GetDailyStats).Methods("GET")
	protected.HandleFunc("/stats/daily/rebuild", sessionHandler.RebuildDailyStat).Methods("POST")

	protected.HandleFunc("/analytics", analyticsHandler.GetAnalytics).Methods("GET")
	protected.HandleFunc("/streak", analyticsHandler.GetStreak).Methods("GET")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
