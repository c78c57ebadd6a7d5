package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpapi "github.com/smart-mermaid/go-mermaid-backend/internal/api/http"
	"github.com/smart-mermaid/go-mermaid-backend/internal/api/http/middleware"
	"github.com/smart-mermaid/go-mermaid-backend/internal/api/http/routes"
	editorservice "github.com/smart-mermaid/go-mermaid-backend/internal/editor/service"
	historyservice "github.com/smart-mermaid/go-mermaid-backend/internal/history/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	DB             *pgxpool.Pool
	Redis          *redis.Client
	Session        *editorservice.Session
	History        *historyservice.Manager
	Logger         zerolog.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.APIKeyMiddleware())
	api.Use(middleware.RequestIDMiddleware(dep.Logger))

	routes.RegisterV1(api, routes.V1Deps{
		Session: dep.Session,
		History: dep.History,
	})

	return r
}
