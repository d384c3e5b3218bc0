package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/berntpopp/kidney-genetics-db-sub004/cache"
	"github.com/berntpopp/kidney-genetics-db-sub004/config"
	"github.com/berntpopp/kidney-genetics-db-sub004/models"
	"github.com/berntpopp/kidney-genetics-db-sub004/services"
	"github.com/berntpopp/kidney-genetics-db-sub004/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	evidenceUpsertsCounter prometheus.Counter
	stagingCounter         prometheus.Counter
	runsCompletedCounter   prometheus.Counter
	runsFailedCounter      prometheus.Counter
)

func init() {
	evidenceUpsertsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evidence_upserts_total",
		Help: "Total number of evidence rows upserted.",
	})
	stagingCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staging_records_total",
		Help: "Total number of gene mentions routed to manual review.",
	})
	runsCompletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "source_runs_completed_total",
		Help: "Total number of completed source ingestion runs.",
	})
	runsFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "source_runs_failed_total",
		Help: "Total number of failed source ingestion runs.",
	})
	prometheus.MustRegister(evidenceUpsertsCounter, stagingCounter, runsCompletedCounter, runsFailedCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to kidney-genetics database.")

	// Auto-Migration
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.Gene{}, &models.GeneAlias{}, &models.GeneSynonym{}, &models.ExcludedTerm{},
		&models.StagingRecord{}, &models.EvidenceItem{}, &models.SourceProgress{},
		&models.CacheEntry{}, &models.EvidenceScore{}, &models.SourceWeight{},
	)

	// Seeding
	seedDefaultGenes(db, logging)
	seedDefaultSynonyms(db, logging)
	seedDefaultExcludedTerms(db, logging)
	seedDefaultSourceWeights(db, logging)

	// Setup Services
	cacheSvc := cache.NewService(db, logging, cfg.FetchMaxAttempts, cfg.FetchTimeout)
	pipeline, err := services.NewPipeline(cfg, db, cacheSvc, logging)
	if err != nil {
		logging.Fatal("Pipeline setup failed", zap.Error(err))
	}
	reviewSvc := services.NewReviewService(db, logging)
	logging.Info("Active sources loaded", zap.Strings("sources", cfg.SourceNames()))

	var s3Client *awss3.Client
	if cfg.S3Enabled() {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
	} else {
		logging.Warn("No S3 target configured, panel export disabled.")
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupGeneRoutes(router, db, pipeline, logging)
	setupEvidenceRoutes(router, pipeline, logging)
	setupStagingRoutes(router, reviewSvc, pipeline, logging)
	setupProgressRoutes(router, pipeline)
	setupScoreRoutes(router, db, pipeline, logging)
	setupUpdateRoutes(router, pipeline)
	setupCacheRoutes(router, cacheSvc, logging)
	setupExportRoutes(router, db, s3Client, cfg, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled update job...")
		outcomes := pipeline.RunUpdate(context.Background(), nil, false)
		recordOutcomes(outcomes)
		logging.Info("Scheduled update completed", zap.Any("outcomes", outcomes))

		if evicted, err := cacheSvc.Evict(); err != nil {
			logging.Warn("Cache eviction failed", zap.Error(err))
		} else if evicted > 0 {
			logging.Info("Expired cache entries evicted", zap.Int64("count", evicted))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// recordOutcomes aktualisiert die Prometheus-Zähler nach einem Lauf.
func recordOutcomes(outcomes []services.SourceOutcome) {
	for _, o := range outcomes {
		switch o.Status {
		case services.OutcomeFailed:
			runsFailedCounter.Inc()
		default:
			runsCompletedCounter.Inc()
		}
		evidenceUpsertsCounter.Add(float64(o.Upserted))
		stagingCounter.Add(float64(o.Staged))
	}
}

func setupGeneRoutes(router *gin.Engine, db *gorm.DB, pipeline *services.Pipeline, log *zap.Logger) {
	rg := router.Group("/genes")

	// GET - Alle aktuellen Gene (valid_to offen)
	rg.GET("/", func(c *gin.Context) {
		var genes []models.Gene
		if err := db.Where("valid_to IS NULL").Order("approved_symbol").Find(&genes).Error; err != nil {
			log.Error("Database query for genes failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, genes)
	})

	// GET - Ein Gen per Symbol; ?at=RFC3339 liefert den damaligen Stand
	rg.GET("/:symbol", func(c *gin.Context) {
		at := time.Now()
		if raw := c.Query("at"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'at' timestamp, expected RFC3339"})
				return
			}
			at = parsed
		}
		gene, err := pipeline.Resolver.GeneAtTime(c.Param("symbol"), at)
		if err != nil {
			log.Error("Gene lookup failed", zap.String("symbol", c.Param("symbol")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if gene == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "gene not found"})
			return
		}
		c.JSON(http.StatusOK, gene)
	})

	// GET - Evidenz eines Gens
	rg.GET("/:symbol/evidence", func(c *gin.Context) {
		gene, err := pipeline.Resolver.GeneAtTime(c.Param("symbol"), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if gene == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "gene not found"})
			return
		}
		items, err := pipeline.Aggregator.ListEvidence(gene.ID)
		if err != nil {
			log.Error("Evidence query failed", zap.Uint("gene_id", gene.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"gene": gene, "evidence": items})
	})

	// POST - Symbol-Umbenennung (schließt die alte Zeile temporal)
	rg.POST("/rename", func(c *gin.Context) {
		var req struct {
			OldSymbol string `json:"old_symbol" binding:"required"`
			NewSymbol string `json:"new_symbol" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "old_symbol and new_symbol required"})
			return
		}
		gene, err := pipeline.Resolver.RenameGene(req.OldSymbol, req.NewSymbol)
		if err != nil {
			log.Error("Gene rename failed", zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gene)
	})

	// POST - Einzelne Erwähnung auflösen (Debug/Kurations-Helfer)
	rg.POST("/resolve", func(c *gin.Context) {
		var req struct {
			Text   string `json:"text" binding:"required"`
			Source string `json:"source"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
			return
		}
		if req.Source == "" {
			req.Source = "manual"
		}
		result, err := pipeline.Resolver.Resolve(req.Text, req.Source)
		if err != nil {
			if errors.Is(err, services.ErrEmptyMention) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "empty mention"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  result.Status,
			"gene":    result.Gene,
			"staging": result.Staging,
		})
	})
}

func setupEvidenceRoutes(router *gin.Engine, pipeline *services.Pipeline, log *zap.Logger) {
	rg := router.Group("/evidence")

	// DELETE - Expliziter Quellen-Purge mit anschließender Neuberechnung
	rg.DELETE("/source/:name", func(c *gin.Context) {
		name := c.Param("name")
		deleted, err := pipeline.Aggregator.PurgeSource(name)
		if err != nil {
			log.Error("Source purge failed", zap.String("source", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		recomputed, err := pipeline.Scorer.RecomputeAll()
		if err != nil {
			log.Error("Recompute after purge failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "purge succeeded but recompute failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted, "recomputed": recomputed})
	})
}

func setupStagingRoutes(router *gin.Engine, review *services.ReviewService, pipeline *services.Pipeline, log *zap.Logger) {
	rg := router.Group("/staging")

	rg.GET("/", func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				limit = n
			}
		}
		records, err := review.List(c.Query("status"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, records)
	})

	rg.POST("/:id/approve", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req struct {
			ApprovedSymbol string `json:"approved_symbol" binding:"required"`
			Reviewer       string `json:"reviewer"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "approved_symbol required"})
			return
		}
		gene, err := review.Approve(uint(id), req.ApprovedSymbol, req.Reviewer)
		if err != nil {
			if errors.Is(err, services.ErrNotPending) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			log.Error("Staging approval failed", zap.Uint64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		// Score des freigegebenen Gens direkt mitziehen.
		if err := pipeline.Scorer.ComputeForGenes([]uint{gene.ID}); err != nil {
			log.Warn("Score update after approval failed", zap.Uint("gene_id", gene.ID), zap.Error(err))
		}
		c.JSON(http.StatusOK, gene)
	})

	rg.POST("/:id/reject", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req struct {
			Reviewer string `json:"reviewer"`
		}
		_ = c.ShouldBindJSON(&req)
		if err := review.Reject(uint(id), req.Reviewer); err != nil {
			if errors.Is(err, services.ErrNotPending) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "rejected"})
	})
}

func setupProgressRoutes(router *gin.Engine, pipeline *services.Pipeline) {
	rg := router.Group("/progress")

	rg.GET("/", func(c *gin.Context) {
		all, err := pipeline.Tracker.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, all)
	})

	rg.GET("/:source", func(c *gin.Context) {
		progress, err := pipeline.Tracker.Get(c.Param("source"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, progress)
	})
}

func setupScoreRoutes(router *gin.Engine, db *gorm.DB, pipeline *services.Pipeline, log *zap.Logger) {
	rg := router.Group("/scores")

	// POST - Gefilterte Score-Liste für das Panel-Ranking
	rg.POST("/query", func(c *gin.Context) {
		var req struct {
			Tier     string   `json:"tier"`
			MinScore *float64 `json:"min_score"`
			Limit    int      `json:"limit"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.EvidenceScore{}).Preload("Gene")
		if req.Tier != "" {
			query = query.Where("tier = ?", req.Tier)
		}
		if req.MinScore != nil {
			query = query.Where("score >= ?", *req.MinScore)
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var scores []models.EvidenceScore
		if err := query.Order("score desc").Find(&scores).Error; err != nil {
			log.Error("Score query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, scores)
	})

	// POST - Vollständige Neuberechnung (idempotent, jederzeit erlaubt)
	rg.POST("/recompute", func(c *gin.Context) {
		count, err := pipeline.Scorer.RecomputeAll()
		if err != nil {
			log.Error("Score recompute failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recompute failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"recomputed": count})
	})
}

func setupUpdateRoutes(router *gin.Engine, pipeline *services.Pipeline) {
	rg := router.Group("/update")

	// POST - Update-Lauf anstoßen (asynchron, Ergebnis via /progress)
	rg.POST("/run", func(c *gin.Context) {
		var req struct {
			Sources []string `json:"sources"`
			Force   bool     `json:"force"`
		}
		_ = c.ShouldBindJSON(&req)

		go func() {
			outcomes := pipeline.RunUpdate(context.Background(), req.Sources, req.Force)
			recordOutcomes(outcomes)
			pipeline.Logger.Info("Async update completed", zap.Any("outcomes", outcomes))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Update triggered.", "sources": req.Sources})
	})

	// POST - Synchron für kleine Läufe und Betriebs-Debugging
	rg.POST("/run-sync", func(c *gin.Context) {
		var req struct {
			Sources []string `json:"sources"`
			Force   bool     `json:"force"`
		}
		_ = c.ShouldBindJSON(&req)

		outcomes := pipeline.RunUpdate(c.Request.Context(), req.Sources, req.Force)
		recordOutcomes(outcomes)
		c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
	})
}

func setupCacheRoutes(router *gin.Engine, cacheSvc *cache.Service, log *zap.Logger) {
	rg := router.Group("/cache")

	rg.DELETE("/:namespace", func(c *gin.Context) {
		ns := c.Param("namespace")
		deleted, err := cacheSvc.ClearNamespace(ns)
		if err != nil {
			log.Error("Cache clear failed", zap.String("namespace", ns), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"namespace": ns, "deleted": deleted})
	})
}

// setupExportRoutes konfiguriert den Panel-Snapshot-Export nach S3.
func setupExportRoutes(router *gin.Engine, db *gorm.DB, s3Client *awss3.Client, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/export")

	rg.POST("/panel", func(c *gin.Context) {
		if s3Client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no S3 target configured"})
			return
		}

		type panelEntry struct {
			ApprovedSymbol string  `json:"approved_symbol"`
			HGNCID         string  `json:"hgnc_id,omitempty"`
			Score          float64 `json:"score"`
			Tier           string  `json:"tier"`
			SourceCount    int     `json:"source_count"`
		}

		var scores []models.EvidenceScore
		if err := db.Preload("Gene").Order("score desc").Find(&scores).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		entries := make([]panelEntry, 0, len(scores))
		for _, s := range scores {
			if s.Gene == nil || !s.Gene.Current() {
				continue
			}
			entries = append(entries, panelEntry{
				ApprovedSymbol: s.Gene.ApprovedSymbol,
				HGNCID:         s.Gene.HGNCID,
				Score:          s.Score,
				Tier:           s.Tier,
				SourceCount:    s.SourceCount,
			})
		}

		snapshot, err := json.Marshal(gin.H{
			"exported_at": time.Now().Format(time.RFC3339),
			"genes":       entries,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot encoding failed"})
			return
		}

		key := fmt.Sprintf("panel-snapshots/kidney-genetics-%s.json.gz", time.Now().Format("2006-01-02T15-04-05"))
		link, err := storage.UploadGzipJSON(c.Request.Context(), s3Client, cfg, key, snapshot)
		if err != nil {
			log.Error("Panel export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}
		log.Info("Panel snapshot exported", zap.String("link", link), zap.Int("genes", len(entries)))
		c.JSON(http.StatusOK, gin.H{"link": link, "genes": len(entries)})
	})
}

func seedDefaultGenes(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.Gene{}).Count(&count)
	if count > 0 {
		return
	}
	now := time.Now()
	genes := []models.Gene{
		{ApprovedSymbol: "PKD1", HGNCID: "HGNC:9008", Name: "polycystin 1, transient receptor potential channel interacting", ValidFrom: now},
		{ApprovedSymbol: "PKD2", HGNCID: "HGNC:9009", Name: "polycystin 2, transient receptor potential cation channel", ValidFrom: now},
		{ApprovedSymbol: "PKHD1", HGNCID: "HGNC:9016", Name: "PKHD1 ciliary IPT domain containing fibrocystin/polyductin", ValidFrom: now},
		{ApprovedSymbol: "APOL1", HGNCID: "HGNC:618", Name: "apolipoprotein L1", ValidFrom: now},
		{ApprovedSymbol: "NPHS1", HGNCID: "HGNC:7908", Name: "NPHS1 adhesion molecule, nephrin", ValidFrom: now},
		{ApprovedSymbol: "NPHS2", HGNCID: "HGNC:13394", Name: "NPHS2 stomatin family member, podocin", ValidFrom: now},
		{ApprovedSymbol: "COL4A3", HGNCID: "HGNC:2204", Name: "collagen type IV alpha 3 chain", ValidFrom: now},
		{ApprovedSymbol: "COL4A4", HGNCID: "HGNC:2206", Name: "collagen type IV alpha 4 chain", ValidFrom: now},
		{ApprovedSymbol: "COL4A5", HGNCID: "HGNC:2207", Name: "collagen type IV alpha 5 chain", ValidFrom: now},
		{ApprovedSymbol: "UMOD", HGNCID: "HGNC:12559", Name: "uromodulin", ValidFrom: now},
		{ApprovedSymbol: "WT1", HGNCID: "HGNC:12796", Name: "WT1 transcription factor", ValidFrom: now},
		{ApprovedSymbol: "HNF1B", HGNCID: "HGNC:11630", Name: "HNF1 homeobox B", ValidFrom: now},
	}
	if err := db.Create(&genes).Error; err != nil {
		logger.Warn("Failed to seed default genes", zap.Error(err))
	} else {
		logger.Info("Default kidney genes seeded.")
	}
}

func seedDefaultSynonyms(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.GeneSynonym{}).Count(&count)
	if count > 0 {
		return
	}
	synonyms := []models.GeneSynonym{
		{Synonym: "APOLIPOPROTEIN L1", ApprovedSymbol: "APOL1"},
		{Synonym: "POLYCYSTIN 1", ApprovedSymbol: "PKD1"},
		{Synonym: "POLYCYSTIN 2", ApprovedSymbol: "PKD2"},
		{Synonym: "FIBROCYSTIN", ApprovedSymbol: "PKHD1"},
		{Synonym: "NEPHRIN", ApprovedSymbol: "NPHS1"},
		{Synonym: "PODOCIN", ApprovedSymbol: "NPHS2"},
		{Synonym: "UROMODULIN", ApprovedSymbol: "UMOD"},
		{Synonym: "WILMS TUMOR 1", ApprovedSymbol: "WT1"},
	}
	if err := db.Create(&synonyms).Error; err != nil {
		logger.Warn("Failed to seed default synonyms", zap.Error(err))
	} else {
		logger.Info("Default synonyms seeded.")
	}
}

func seedDefaultExcludedTerms(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.ExcludedTerm{}).Count(&count)
	if count > 0 {
		return
	}
	terms := []models.ExcludedTerm{
		{Term: "ALBUMIN"}, {Term: "KIDNEY"}, {Term: "RENAL"}, {Term: "NEPHROPATHY"},
		{Term: "PROTEIN"}, {Term: "GENE"}, {Term: "DNA"}, {Term: "RNA"}, {Term: "ANCA"},
	}
	if err := db.Create(&terms).Error; err != nil {
		logger.Warn("Failed to seed excluded terms", zap.Error(err))
	} else {
		logger.Info("Default excluded terms seeded.")
	}
}

func seedDefaultSourceWeights(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.SourceWeight{}).Count(&count)
	if count > 0 {
		return
	}
	weights := []models.SourceWeight{
		{SourceName: "gencc", Weight: 0.5},
		{SourceName: "clingen", Weight: 0.6},
		{SourceName: "panelapp", Weight: 0.3},
		{SourceName: "diagpanels", Weight: 0.3},
		{SourceName: "hpo", Weight: 0.2},
		{SourceName: "pubtator", Weight: 0.1},
		{SourceName: "literature", Weight: 0.1},
	}
	if err := db.Create(&weights).Error; err != nil {
		logger.Warn("Failed to seed source weights", zap.Error(err))
	} else {
		logger.Info("Default source weights seeded.")
	}
}
