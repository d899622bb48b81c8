package query

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/helitech/journal_backend/config"
)

// HTTP surface of the read-only facade. Three routes: liveness, schema
// introspection and ad-hoc SELECT execution.

type queryRequest struct {
	SQL   string `json:"sql" binding:"required"`
	Limit int    `json:"limit"`
}

type queryResponse struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
	Count   int             `json:"count"`
}

// NewRouter builds the gin engine for the query service. The database is
// read through config.GetDB on every request so the service can start
// listening before the store is up.
func NewRouter(logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(errorLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		if config.GetDB() == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/schema", func(c *gin.Context) {
		db := storeOr503(c)
		if db == nil {
			return
		}
		tables, err := Schema(db.WithContext(c.Request.Context()))
		if err != nil {
			config.LogError(logger, "query", "Schema", "introspection", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "schema introspection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tables": tables})
	})

	r.POST("/query", func(c *gin.Context) {
		db := storeOr503(c)
		if db == nil {
			return
		}
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		columns, rows, err := ExecuteReadOnly(db.WithContext(c.Request.Context()), req.SQL, req.Limit)
		if err != nil {
			if ValidateReadOnly(req.SQL) != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			config.LogError(logger, "query", "ExecuteReadOnly", "ad-hoc query", req.SQL, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, queryResponse{Columns: columns, Rows: rows, Count: len(rows)})
	})

	return r
}

func storeOr503(c *gin.Context) *gorm.DB {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	}
	return db
}

// errorLogger logs only requests that ended with gin errors.
func errorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}
