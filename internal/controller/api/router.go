package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kumarDivyanshu/summarizer/internal/controller/api/handlers"
	"github.com/kumarDivyanshu/summarizer/internal/core/service"
	"github.com/kumarDivyanshu/summarizer/internal/database"
)

type RouterConfig struct {
	Store       *database.Store
	Coordinator *service.Coordinator
}

func SetupRouter(e *echo.Echo, cfg RouterConfig) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	config := huma.DefaultConfig("Summarizer API", "1.0.0")
	config.Servers = []*huma.Server{{URL: "/api/v1"}}
	config.Info.Description = "Meeting audio transcription and summarization service"

	handlers.InitErrors()
	api := humaecho.NewWithGroup(e, v1, config)

	meetingsHandler := handlers.NewMeetingsHandler(cfg.Coordinator, cfg.Store)
	usersHandler := handlers.NewUsersHandler(cfg.Store)

	huma.Register(api, huma.Operation{
		OperationID: "create-user",
		Method:      http.MethodPost,
		Path:        "/users",
		Summary:     "Register a meeting owner",
		Tags:        []string{"Users"},
	}, usersHandler.Create)

	// Multipart upload goes through Echo directly; huma handles the JSON
	// operations.
	v1.POST("/meetings/upload", meetingsHandler.Upload)

	huma.Register(api, huma.Operation{
		OperationID: "list-meetings",
		Method:      http.MethodGet,
		Path:        "/meetings",
		Summary:     "List a user's meetings",
		Tags:        []string{"Meetings"},
	}, meetingsHandler.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-meeting",
		Method:      http.MethodGet,
		Path:        "/meetings/{id}",
		Summary:     "Get a meeting with its transcript, summary, and action items",
		Tags:        []string{"Meetings"},
	}, meetingsHandler.Get)

	huma.Register(api, huma.Operation{
		OperationID: "get-meeting-status",
		Method:      http.MethodGet,
		Path:        "/meetings/{id}/status",
		Summary:     "Get just the job status of a meeting",
		Tags:        []string{"Meetings"},
	}, meetingsHandler.Status)

	huma.Register(api, huma.Operation{
		OperationID: "reprocess-meeting",
		Method:      http.MethodPost,
		Path:        "/meetings/{id}/reprocess",
		Summary:     "Re-run the processing pipeline for a meeting",
		Tags:        []string{"Meetings"},
	}, meetingsHandler.Reprocess)
}
