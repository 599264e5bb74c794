package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dorian5656/nhsa-crm-sync/internal/config"
	"github.com/dorian5656/nhsa-crm-sync/internal/crm"
	"github.com/dorian5656/nhsa-crm-sync/internal/notify"
	"github.com/dorian5656/nhsa-crm-sync/internal/repository"
	"github.com/dorian5656/nhsa-crm-sync/internal/service"
	"github.com/dorian5656/nhsa-crm-sync/internal/utils"
)

// One-shot runner for cron. Pulls the whole import table, pushes every
// record to the CRM and exits non-zero when the run aborts.
func main() {
	dryRun := flag.Bool("dry-run", false, "count records without posting anything")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed load config:", err)
	}
	if *dryRun {
		cfg.CRMDryRun = true
	}

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

	if err := repo.RunMigrations(context.Background()); err != nil {
		log.Fatal("migration error:", err)
	}

	wecom := notify.NewWeComClient(cfg.WeComWebhookURL, cfg.WeComRobotKey)
	feishu := notify.NewFeishuClient(cfg.FeishuWebhookToken, cfg.FeishuAppID, cfg.FeishuAppSecret)
	notifier := &notify.RunNotifier{
		WeCom:        wecom,
		Feishu:       feishu,
		DetailLogURL: cfg.PublicBaseURL + "/api/v1/sync/last",
		AtUserID:     cfg.FeishuAtUserID,
	}

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

	crmClient := crm.NewClient(cfg.CRMAPIBase, cfg.CRMAppID, cfg.CRMAppSecret, cfg.CRMPermanentCode)
	crmClient.DirectPostURL = cfg.CRMDirectPostURL
	crmClient.DirectHeaders = cfg.CRMDirectPostHeaders
	crmClient.DataCenterID = cfg.CRMDataCenterID
	crmClient.TenantID = cfg.CRMTenantID
	crmClient.PushToken = cfg.CRMPushToken

	syncService := service.NewSyncService(repo, crmClient, notifier, cfg.CRMDryRun, cfg.CRMProgressStep)

	ctx := context.Background()
	start := time.Now()
	repo.CreateSyncHistory(ctx, "crm-push", "running", 0, nil)

	summary, err := syncService.Run(ctx)
	durationMs := time.Since(start).Milliseconds()
	if err != nil {
		log.Printf("ERROR: sync run aborted: %v", err)
		details, _ := json.Marshal(map[string]string{"error": err.Error()})
		repo.CreateSyncHistory(ctx, "crm-push", "failed", durationMs, details)
		sink.Flush()
		os.Exit(1)
	}

	details, _ := json.Marshal(utils.ConvertSummaryToItems(*summary))
	repo.CreateSyncHistory(ctx, "crm-push", "success", durationMs, details)

	log.Println("sync run done:", utils.ConvertSummaryToLine(*summary))
	sink.Flush()
}
