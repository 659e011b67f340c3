package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alisha-sapkal/aptos/config"
	"github.com/alisha-sapkal/aptos/internal/handlers"
	"github.com/alisha-sapkal/aptos/internal/ipfs"
	"github.com/alisha-sapkal/aptos/internal/middleware"
	"github.com/alisha-sapkal/aptos/internal/store"
	"github.com/alisha-sapkal/aptos/internal/ticketing"
	"github.com/alisha-sapkal/aptos/internal/token"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	aptosCfg, err := config.LoadAptosConfig()
	if err != nil {
		return fmt.Errorf("failed to load aptos config: %v", err)
	}

	pinataCfg, err := config.LoadPinataConfig()
	if err != nil {
		return fmt.Errorf("failed to load pinata config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	aptosClient, err := config.InitAptosClient(aptosCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize aptos client: %v", err)
	}

	ticketingService := ticketing.NewService(
		store.NewGormTicketStore(db),
		aptosClient,
		token.NewCodec(cfg.JWTSecret),
		aptosCfg.LedgerTimeout,
	)
	pinataClient := ipfs.NewPinataClient(pinataCfg.JWT)

	r := gin.Default()

	setupRoutes(r, db, ticketingService, pinataClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, ticketingService *ticketing.Service, pinataClient *ipfs.PinataClient) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.TicketingMiddleware(ticketingService))
	r.Use(middleware.PinataMiddleware(pinataClient))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		ticketPublic := public.Group("/tickets")
		{
			ticketPublic.POST("/generate-qr", handlers.GenerateQR)
			ticketPublic.GET("/:address/qr", handlers.TicketQRImage)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("", handlers.CreateEvent)
			eventProtected.PUT("/:id/contract", handlers.AttachContract)
		}

		// Only staff scanners (and admins) may redeem tickets; an
		// organizer's token is not enough to check someone in.
		protected.POST("/tickets/verify", middleware.RequireRole("staff", "admin"), handlers.Verify)
	}
}
