package container

import (
	"context"
	"fmt"
	"time"

	"club-api/internal/config"
	"club-api/internal/domain"
	"club-api/internal/repository"
	"club-api/internal/repository/memory"
	"club-api/internal/service"
	"club-api/internal/service/auth"
	"club-api/pkg/database"
	"club-api/pkg/logger"
	"club-api/pkg/mailer"
	"club-api/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Cache        *service.CacheService
	Services     *service.Services
	Registry     *prometheus.Registry
}

// New creates a new dependency injection container. Without DATABASE_URL a
// development run falls back to the in-memory store; without REDIS_URL the
// service runs uncached.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	switch {
	case cfg.DatabaseURL != "":
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
		c.Repositories = repository.NewPostgresRepositories(db)
		logger.Info("PostgreSQL repositories initialized")
	case cfg.IsDevelopment():
		c.Repositories = memory.New().Repositories()
		logger.Warn("DATABASE_URL not configured, using in-memory store")
	default:
		return nil, fmt.Errorf("DATABASE_URL is required in %s", cfg.Environment)
	}

	// Initialize Redis client if Redis URL is configured
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without caching")
	}
	c.Cache = service.NewCacheService(c.RedisClient, logger.Logger)

	var notifier service.Notifier
	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger.Logger)
	if mail.Enabled() {
		notifier = mail
		logger.WithField("smtp_host", cfg.SMTPHost).Info("Mailer enabled")
	}

	joinRole, ok := domain.ParseRole(cfg.InviteJoinRole)
	if !ok {
		joinRole = domain.RoleAdmin
	}

	c.Services = &service.Services{
		Auth: auth.NewService(c.Repositories, c.Cache, auth.Options{
			Secret: cfg.JWTSecret,
			TTL:    cfg.JWTTTL,
		}, logger),
		Membership: service.NewMembershipService(c.Repositories, c.Cache, service.MembershipOptions{
			JoinRole:      joinRole,
			PublicBaseURL: cfg.PublicBaseURL,
			Notifier:      notifier,
		}, logger),
		Attendance: service.NewAttendanceService(c.Repositories, logger),
		Board:      service.NewBoardService(c.Repositories, c.Cache, logger),
		Schedule:   service.NewScheduleService(c.Repositories, c.Cache, logger),
	}

	return c, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Health pings every backing store and reports each one's status
func (c *Container) Health(ctx context.Context) map[string]string {
	status := map[string]string{"database": "memory", "redis": "disabled"}

	if c.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.DB.Health(pingCtx); err != nil {
			c.Logger.WithError(err).Warn("Database health check failed")
			status["database"] = "unhealthy"
		} else {
			status["database"] = "healthy"
		}
	}

	if c.RedisClient != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.Cache.HealthCheck(pingCtx); err != nil {
			status["redis"] = "unhealthy"
		} else {
			status["redis"] = "healthy"
		}
	}
	return status
}
