package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	_ "github.com/Emeka-Ugbanu-hub/DiscordBackend/docs"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/archive"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/config"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/game"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/identity"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/question"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/scheduler"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/scoring"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/service"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/transport/rest"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/transport/ws"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// @title Discord Trivia Backend API
// @version 1.0
// @description Real-time multiplayer trivia rooms keyed by voice channel
// @host localhost:8080
// @BasePath /api
func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Redis is optional: without it the archive and counters live in
	// memory and do not survive a restart.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			log.Printf("redis unreachable, falling back to in-memory archive: %v", err)
			redisClient = nil
		} else {
			log.Println("connected to Redis")
		}
	}

	var sink archive.Sink = archive.NewMemorySink()
	var counters archive.Counters = archive.NewMemoryCounters()
	if redisClient != nil {
		sink = archive.NewRedisSink(redisClient)
		counters = archive.NewRedisCounters(redisClient)
	}

	// Mongo is optional too: without it questions come from the
	// embedded pool.
	var loader question.Loader = question.NewStaticLoader()
	if cfg.Mongo.URI != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		mongoClient, err := mongo.Connect(pingCtx, options.Client().ApplyURI(cfg.Mongo.URI))
		cancel()
		if err != nil {
			return err
		}
		defer mongoClient.Disconnect(context.Background())
		log.Println("connected to MongoDB")
		loader = question.NewMongoLoader(mongoClient.Database(cfg.Mongo.Database))
	}
	source := question.NewRepository(loader, 10*time.Minute)

	store := game.NewStore(time.Now)
	timers := scheduler.NewRoundTimers()
	defer timers.StopAll()

	svc := service.NewGameService(store, source, counters, timers, service.Options{
		RoundDuration:       cfg.RoundDuration(),
		InactivityThreshold: cfg.InactivityThreshold(),
		PushStrategy:        scoring.ByName(cfg.Game.PushScoring, cfg.Game.MaxPoints, cfg.Game.Exponent),
		PullStrategy:        scoring.TimeCurve(cfg.Game.MaxPoints, cfg.Game.Exponent),
	})
	reset := service.NewResetService(store, sink, counters, time.Now)

	hub := ws.NewHub()
	svc.SetBroadcaster(hub)
	reset.SetBroadcaster(hub)

	container := &rest.Container{
		GameService: svc,
		Counters:    counters,
		Sink:        sink,
		CORSOrigins: cfg.Server.CORSOrigins,
	}

	var verifier identity.Verifier
	switch cfg.Auth.Mode {
	case "jwt":
		verifier = identity.NewJWTVerifier(cfg.Auth.JWTSecret)
		log.Println("auth mode: jwt (development)")
	default:
		discord := identity.NewDiscordClient(cfg.Discord.APIBase, cfg.Discord.ClientID, cfg.Discord.ClientSecret, cfg.Discord.RedirectURI)
		verifier = discord
		container.Exchanger = discord
		log.Println("auth mode: discord")
	}
	container.AdminGate = identity.NewAdminGate(verifier, cfg.Auth.AdminIDs)
	container.WSHandler = ws.NewHandler(hub, svc, verifier)

	router := rest.NewRouter(container)

	sweeper := scheduler.NewSweeper(cfg.CleanupInterval(), svc.Cleanup)
	sweeper.Start()
	defer sweeper.Stop()

	daily := scheduler.NewDailyJob(cfg.Game.ResetHourUTC, time.Now, func() {
		reset.Run(context.Background())
	})
	daily.Start()
	defer daily.Stop()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("trivia backend listening on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
