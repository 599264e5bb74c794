package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/dorian5656/nhsa-crm-sync/internal/api/handlers"
	"github.com/dorian5656/nhsa-crm-sync/internal/config"
	"github.com/dorian5656/nhsa-crm-sync/internal/crm"
	"github.com/dorian5656/nhsa-crm-sync/internal/middleware"
	"github.com/dorian5656/nhsa-crm-sync/internal/notify"
	"github.com/dorian5656/nhsa-crm-sync/internal/repository"
	"github.com/dorian5656/nhsa-crm-sync/internal/service"
)

func main() {

	// LOAD ENV
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed load config:", err)
	}

	// INIT DB
	dbCfg := &repository.DBConfig{
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Name: cfg.DBName,
		URL:  cfg.DatabaseURL,
	}
	repo, err := repository.NewRepo(dbCfg)
	if err != nil {
		log.Fatal("failed connect db:", err)
	}
	defer repo.Close()

	// MIGRATIONS
	if err := repo.RunMigrations(context.Background()); err != nil {
		log.Fatal("migration error:", err)
	}

	// ADMIN SEED
	hashed, _ := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err := repo.UpsertAdmin(context.Background(), cfg.AdminUsername, string(hashed)); err != nil {
		log.Println("failed seeding admin:", err)
	} else {
		log.Println("admin seeded OK")
	}

	// NOTIFICATION CHANNELS
	wecom := notify.NewWeComClient(cfg.WeComWebhookURL, cfg.WeComRobotKey)
	feishu := notify.NewFeishuClient(cfg.FeishuWebhookToken, cfg.FeishuAppID, cfg.FeishuAppSecret)
	notifier := &notify.RunNotifier{
		WeCom:        wecom,
		Feishu:       feishu,
		DetailLogURL: cfg.PublicBaseURL + "/api/v1/sync/last",
		AtUserID:     cfg.FeishuAtUserID,
	}

	// LOG SINKS: everything written through the standard logger also lands
	// in the chat sink and the crm_sync_log table.
	writers := []io.Writer{os.Stderr}
	sink := notify.NewSink(wecom, feishu, cfg.SinkMaxBuffer, cfg.SinkMaxInterval)
	writers = append(writers, sink)
	if driver, dsn := dbCfg.DriverAndDSN(); driver == "postgres" {
		store, err := repository.NewLogStore(dsn)
		if err != nil {
			log.Println("log store disabled:", err)
		} else {
			writers = append(writers, store)
		}
	}
	log.SetOutput(io.MultiWriter(writers...))

	// SERVICES
	crmClient := crm.NewClient(cfg.CRMAPIBase, cfg.CRMAppID, cfg.CRMAppSecret, cfg.CRMPermanentCode)
	crmClient.DirectPostURL = cfg.CRMDirectPostURL
	crmClient.DirectHeaders = cfg.CRMDirectPostHeaders
	crmClient.DataCenterID = cfg.CRMDataCenterID
	crmClient.TenantID = cfg.CRMTenantID
	crmClient.PushToken = cfg.CRMPushToken

	syncService := service.NewSyncService(repo, crmClient, notifier, cfg.CRMDryRun, cfg.CRMProgressStep)

	// HANDLERS
	authHandler := handlers.NewAuthHandler(repo, cfg.JWTSecret)
	syncHandler := handlers.NewSyncHandler(syncService, repo)

	// ROUTER
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// AUTH ROUTES
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// SYNC ROUTES
	sync := api.Group("/sync")
	sync.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		sync.POST("/crm", syncHandler.TriggerSync)
		sync.GET("/history", syncHandler.GetSyncHistory)
		sync.GET("/last", syncHandler.GetLastRun)
	}

	// START SERVER
	log.Println("Server running on port:", cfg.Port)
	r.Run(":" + cfg.Port)
}
