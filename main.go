package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/socialhub/socialhub/backend/go-services/handlers"
	"github.com/socialhub/socialhub/backend/go-services/internal/config"
	"github.com/socialhub/socialhub/backend/go-services/internal/credentials"
	"github.com/socialhub/socialhub/backend/go-services/internal/database"
	"github.com/socialhub/socialhub/backend/go-services/internal/gql"
	"github.com/socialhub/socialhub/backend/go-services/internal/keyvault"
	"github.com/socialhub/socialhub/backend/go-services/internal/media"
	posthandler "github.com/socialhub/socialhub/backend/go-services/internal/post/handler"
	postrepo "github.com/socialhub/socialhub/backend/go-services/internal/post/repository"
	postservice "github.com/socialhub/socialhub/backend/go-services/internal/post/service"
	"github.com/socialhub/socialhub/backend/go-services/internal/revocation"
	"github.com/socialhub/socialhub/backend/go-services/internal/storage"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
	"github.com/socialhub/socialhub/backend/go-services/internal/users"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
	"github.com/socialhub/socialhub/backend/go-services/pkg/metrics"
	"github.com/socialhub/socialhub/backend/go-services/pkg/middleware"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("log level %s", logger.LevelString())
	logger.Infof("config loaded: keyvault=%v mongo=%v redis=%v minio=%v", cfg.KeyVault.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	defer a.close()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := a.router(cfg)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting socialhub api on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// app holds the wired services shared by the routes.
type app struct {
	mongo     *mongo.Client
	redis     *redis.Client
	keys      *keyvault.KeyCache
	users     *users.Service
	posts     postservice.Service
	media     *media.Service
	issuer    *tokens.Issuer
	validator *tokens.Validator
	revoked   *revocation.RedisStore
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	if cfg.Redis.Host != "" {
		client, err := database.ConnectRedis(ctx, cfg.Redis, database.DefaultRetry)
		if err != nil {
			// revocation and the shared limiter degrade to no-op / in-process
			logger.Warnf("redis unavailable, continuing without it: %v", err)
		} else {
			a.redis = client
		}
	}

	var (
		userRepo  users.UserRepository = users.NewMemoryRepository()
		postRepo  postrepo.Repository  = postrepo.NewMemoryRepo()
		mediaRepo media.Repository     = media.NewMemoryRepository()
	)
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB, database.DefaultRetry)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		db := client.Database(cfg.MongoDB.Database)
		userRepo = users.NewMongoUserRepository(db.Collection("users"))
		postRepo = postrepo.NewMongoRepo(db.Collection("posts"))
		mediaRepo = media.NewMongoRepository(db.Collection("media"))
	} else {
		logger.Warnf("MONGODB_URI not set, using in-memory stores")
	}

	provider, err := newKeyProvider(cfg)
	if err != nil {
		return nil, err
	}
	a.keys = keyvault.NewKeyCache(provider)
	if err := a.keys.Load(ctx); err != nil {
		return nil, fmt.Errorf("load verification key: %w", err)
	}

	a.users = users.NewService(userRepo, credentials.NewHasher(credentials.DefaultParams))
	a.posts = postservice.New(postRepo)
	a.revoked = revocation.NewRedisStore(a.redis)
	a.issuer = tokens.NewIssuer(provider, tokens.IssuerConfig{
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Lifetime: cfg.JWT.Lifetime,
	})
	a.validator = tokens.NewValidator(a.keys, tokens.ValidatorConfig{
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		ClockSkew: cfg.JWT.ClockSkew,
	})
	if a.revoked.Enabled() {
		a.validator.WithRevoker(a.revoked)
	}

	if cfg.MinIO.Endpoint != "" {
		blobs, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("media disabled: %v", err)
		} else {
			a.media = media.NewService(blobs, mediaRepo)
		}
	}
	return a, nil
}

func newKeyProvider(cfg *config.Config) (keyvault.Provider, error) {
	if cfg.KeyVault.URL != "" {
		return keyvault.NewHTTPProvider(keyvault.HTTPConfig{
			BaseURL:     cfg.KeyVault.URL,
			KeyName:     cfg.KeyVault.KeyName,
			AccessToken: cfg.KeyVault.AccessToken,
			Timeout:     cfg.KeyVault.Timeout,
			MaxAttempts: cfg.KeyVault.MaxAttempts,
		})
	}
	if cfg.Server.Environment == "production" {
		return nil, errors.New("KEYVAULT_URL is required in production")
	}
	logger.Warnf("KEYVAULT_URL not set, signing with an ephemeral in-process key")
	return keyvault.NewLocalProvider(2048)
}

func (a *app) router(cfg *config.Config) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.CORS(), gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", a.ready)
	handlers.RegisterSwagger(r)

	opts := middleware.AuthOptions{}
	if cfg.Auth.RecheckActive {
		opts.RecheckActive = a.users.IsActive
	}
	requireAuth := middleware.RequireAuth(a.validator, opts)

	var limit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && a.redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit = middleware.RedisRateLimitMiddleware(a.redis, "auth", cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			limit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	api := r.Group("/api")
	handlers.NewAuthHandler(a.users, a.issuer, a.revoked, a.keys, cfg.JWT.ClockSkew).Register(api, requireAuth, limit)
	handlers.NewUsersHandler(a.users).Register(api, requireAuth)
	posthandler.RegisterPostRoutes(api, a.posts, requireAuth)
	if a.media != nil {
		media.RegisterRoutes(api, a.media, requireAuth)
	}

	schema, err := gql.NewSchema(a.users, a.posts)
	if err != nil {
		logger.Errorf("graphql schema: %v", err)
	} else {
		r.POST("/graphql", middleware.OptionalAuth(a.validator, opts), gql.Handler(schema))
	}
	return r
}

// ready answers 200 only when the verification key is loaded and the
// configured stores respond.
func (a *app) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]bool{"keys": a.keys.Loaded()}
	if a.mongo != nil {
		deps["mongo"] = a.mongo.Ping(ctx, nil) == nil
	}
	if a.redis != nil {
		deps["redis"] = a.redis.Ping(ctx).Err() == nil
	}
	ready := true
	for _, ok := range deps {
		ready = ready && ok
	}
	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.mongo != nil {
		_ = a.mongo.Disconnect(ctx)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
