package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partolaaa/maker-space-tools/internal/api"
	"github.com/partolaaa/maker-space-tools/internal/auth"
	"github.com/partolaaa/maker-space-tools/internal/automation"
	automationHttp "github.com/partolaaa/maker-space-tools/internal/automation/http"
	"github.com/partolaaa/maker-space-tools/internal/availability"
	"github.com/partolaaa/maker-space-tools/internal/booking"
	bookingHttp "github.com/partolaaa/maker-space-tools/internal/booking/http"
	"github.com/partolaaa/maker-space-tools/internal/config"
	"github.com/partolaaa/maker-space-tools/internal/makerspace"
	"github.com/partolaaa/maker-space-tools/internal/selection"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router    *gin.Engine
	Scheduler *automation.Scheduler
	Client    *makerspace.Client
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)

	// Credential storage is optional; without a key the scheduler can only
	// re-login while a remembered session is still warm.
	var credentialStore auth.CredentialStore
	if cfg.HasCredentialKey {
		cipher := auth.NewCredentialCipher(cfg.CredentialKey)
		credentialStore = auth.NewPgxCredentialStore(pool, cipher)
	}

	// Upstream Client
	clientOpts := []makerspace.Option{}
	if credentialStore != nil {
		store := credentialStore
		clientOpts = append(clientOpts, makerspace.WithFallbackCredentials(
			func(ctx context.Context) (makerspace.Credentials, bool) {
				creds, ok, err := store.Load(ctx)
				if err != nil || !ok {
					return makerspace.Credentials{}, false
				}
				return creds, true
			}))
	}
	client := makerspace.NewClient(cfg.MakerSpaceBaseURL, cfg.MakerSpaceClientID, clientOpts...)

	// Availability Module
	availabilityService := availability.NewService(
		client,
		cfg.MachineGUID,
		cfg.MachineName,
		cfg.WorkingHours,
		cfg.MaxBookingHours,
		cfg.AutoSlotMinutes,
	)

	// Selection Engine
	engine := selection.NewEngine(selection.Config{
		MaxBookingHours:           cfg.MaxBookingHours,
		MaxBookingDurationMinutes: cfg.MaxBookingDurationMinutes,
		AutoSlotMinutes:           cfg.AutoSlotMinutes,
	})

	// Booking Module
	bookingService := booking.NewService(
		client,
		availabilityService,
		engine,
		cfg.WorkingHours,
		cfg.MachineID,
		cfg.CoworkerID,
		cfg.MaxBookingHours,
		cfg.MaxBookingDurationMinutes,
	)

	// Automation Module
	jobRepo := automation.NewPgxJobRepository(pool)
	attemptRepo := automation.NewPgxAttemptRepository(pool, cfg.AttemptFeedSize)
	automationService := automation.NewService(
		jobRepo,
		attemptRepo,
		cfg.WorkingHours,
		cfg.TimeZone,
		cfg.MaxBookingDurationMinutes,
		cfg.AutoSlotMinutes,
		automation.MaxAttemptQueryLimit,
	)
	scheduler := automation.NewScheduler(
		jobRepo,
		attemptRepo,
		bookingService,
		cfg.MaxBookingHours,
		cfg.AttemptInterval,
		cfg.SchedulerSpec,
	)

	// HTTP Handlers
	authHandler := api.NewAuthHandler(client, jwtManager, credentialStore, cfg.IsProduction)
	bookingHandler := bookingHttp.NewHandler(bookingService, availabilityService, cfg.TimeZone)
	automationHandler := automationHttp.NewHandler(automationService)

	// Router
	router := api.NewRouter(authHandler, bookingHandler, automationHandler, jwtManager, cfg.ProdOrigins)

	return &Container{
		Router:    router,
		Scheduler: scheduler,
		Client:    client,
	}
}
