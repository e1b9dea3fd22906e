// The api binary serves stored analysis results as JSON, for dashboards and
// plotting scripts that consume the result records directly.
package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"psychofit/adapters/postgres"
	"psychofit/domain/core"
	"psychofit/internal"
	"psychofit/internal/config"
	"psychofit/internal/report"
	"psychofit/ports"
)

const curveSamplePoints = 100

func main() {
	_ = godotenv.Load()
	logger := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("connecting to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	if _, err := db.Exec(postgres.Schema); err != nil {
		logger.Error("applying schema: %v", err)
		os.Exit(1)
	}

	repo := postgres.NewResultRepository(db)
	router := setupRouter(repo)

	addr := ":" + cfg.Server.Port
	logger.Info("api listening on %s", addr)
	if err := router.Run(addr); err != nil {
		logger.Error("server: %v", err)
		os.Exit(1)
	}
}

func setupRouter(repo ports.ResultRepository) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/results", func(c *gin.Context) {
		results, err := repo.ListLatest(c.Request.Context(), 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing results failed"})
			return
		}
		c.JSON(http.StatusOK, results)
	})

	router.GET("/results/:runID", func(c *gin.Context) {
		result, err := repo.GetByRunID(c.Request.Context(), core.RunID(c.Param("runID")))
		if core.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "loading result failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	router.GET("/results/:runID/curve", func(c *gin.Context) {
		result, err := repo.GetByRunID(c.Request.Context(), core.RunID(c.Param("runID")))
		if core.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "loading result failed"})
			return
		}
		if result.Fit == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no fitted curve for this run"})
			return
		}
		c.JSON(http.StatusOK, result.Fit.SampleCurve(curveSamplePoints))
	})

	router.GET("/datasets/:name/results", func(c *gin.Context) {
		results, err := repo.ListByDataset(c.Request.Context(), core.DatasetName(c.Param("name")), 20)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing results failed"})
			return
		}
		c.JSON(http.StatusOK, results)
	})

	router.GET("/summary", func(c *gin.Context) {
		results, err := repo.ListLatest(c.Request.Context(), 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing results failed"})
			return
		}
		c.JSON(http.StatusOK, report.BuildSummary(results))
	})

	return router
}
