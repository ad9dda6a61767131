package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// TokenHeader carries the session token.
const TokenHeader = "X-Token"

type Config struct {
	MaxSize      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func New(cfg Config, fileService *files.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "files-manager",
		BodyLimit:    cfg.MaxSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorHandler: errorHandler,
	})

	app.Use(recoverer.New())
	app.Use(loggingMiddleware())

	app.Get("/healthz", healthz)
	app.Get("/status", getStatus(fileService))
	app.Get("/stats", getStats(fileService))

	app.Post("/files", postUpload(fileService))
	app.Get("/files", getIndex(fileService))
	app.Get("/files/:id", getShow(fileService))
	app.Put("/files/:id/publish", putPublish(fileService))
	app.Put("/files/:id/unpublish", putUnpublish(fileService))
	app.Get("/files/:id/data", getFile(fileService))

	return app
}

func healthz(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func getStatus(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.JSON(fileService.Status(c.RequestCtx()))
	}
}

func getStats(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		stats, err := fileService.Stats(c.RequestCtx())
		if err != nil {
			log.Error().Err(err).Msg("Failed to retrieve stats")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not retrieve stats"})
		}
		return c.JSON(stats)
	}
}

// uploadBody is the JSON body of POST /files. Fields are decoded loosely
// so that a wrongly typed value never hides an authentication failure;
// the service reports field errors after checking the session.
type uploadBody struct {
	Name     any `json:"name"`
	Type     any `json:"type"`
	ParentID any `json:"parentId"`
	IsPublic any `json:"isPublic"`
	Data     any `json:"data"`
}

func (b *uploadBody) request() *files.UploadRequest {
	return &files.UploadRequest{
		Name:     stringParam(b.Name),
		Type:     files.Type(stringParam(b.Type)),
		Data:     stringParam(b.Data),
		ParentID: parentParam(b.ParentID),
		IsPublic: truthy(b.IsPublic),
	}
}

func stringParam(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
	return ""
}

func truthy(v any) bool {
	switch p := v.(type) {
	case nil:
		return false
	case bool:
		return p
	case string:
		return p != ""
	case float64:
		return p != 0
	}
	return true
}

func parentParam(v any) string {
	switch p := v.(type) {
	case nil:
		return "0"
	case string:
		if p == "" {
			return "0"
		}
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(p)
	}
	// Objects and arrays never name a folder
	return "-"
}

func postUpload(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		var body uploadBody
		if len(c.Body()) > 0 {
			if err := c.Bind().Body(&body); err != nil {
				// Unreadable bodies upload nothing; the service still checks
				// the session first and then reports the first missing field.
				log.Debug().Err(err).Msg("Failed to decode upload body")
				body = uploadBody{}
			}
		}

		entry, err := fileService.Upload(c.RequestCtx(), c.Get(TokenHeader), body.request())

		var dispatchErr *files.DispatchError
		if errors.As(err, &dispatchErr) {
			log.Error().Err(err).Str("file_id", dispatchErr.Entry.ID.Hex()).Msg("Upload stored but thumbnail job was not queued")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to queue thumbnail job",
				"id":    dispatchErr.Entry.ID.Hex(),
			})
		}
		if err != nil {
			return writeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

func getShow(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		entry, err := fileService.Show(c.RequestCtx(), c.Get(TokenHeader), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(entry)
	}
}

func getIndex(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page"))
		switch {
		case errors.Is(err, strconv.ErrRange) && page > 0:
			// Atoi saturates at MaxInt, a page past every listing.
		case err != nil:
			page = 0
		}

		entries, err := fileService.Index(c.RequestCtx(), c.Get(TokenHeader), c.Query("parentId"), page)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(entries)
	}
}

func putPublish(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		entry, err := fileService.Publish(c.RequestCtx(), c.Get(TokenHeader), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(entry)
	}
}

func putUnpublish(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		entry, err := fileService.Unpublish(c.RequestCtx(), c.Get(TokenHeader), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(entry)
	}
}

func getFile(fileService *files.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		entry, data, err := fileService.Content(c.RequestCtx(), c.Get(TokenHeader), c.Params("id"), c.Query("size"))
		if err != nil {
			return writeError(c, err)
		}

		c.Set(fiber.HeaderContentType, files.ContentType(entry.Name, data))
		return c.Send(data)
	}
}

// errorResponse maps a service error to a status code and message.
func errorResponse(err error) (int, string) {
	var validationErr *files.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, validationErr.Message
	case errors.Is(err, files.ErrFolderHasNoContent):
		return fiber.StatusBadRequest, "A folder doesn't have content"
	case errors.Is(err, files.ErrUnauthorized):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, files.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, files.ErrUpstream):
		return fiber.StatusServiceUnavailable, "Service unavailable"
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

func writeError(c fiber.Ctx, err error) error {
	status, message := errorResponse(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// errorHandler renders errors returned by fiber itself, such as unknown
// routes, in the same shape as service errors.
func errorHandler(c fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	return writeError(c, err)
}

// loggingMiddleware logs HTTP requests with structured logging
func loggingMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		requestID := xid.New().String()
		c.Set(fiber.HeaderXRequestID, requestID)

		// Process the request
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("query", string(c.Request().URI().QueryString())).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("remote_addr", c.IP()).
			Str("user_agent", c.Get(fiber.HeaderUserAgent)).
			Msg("HTTP request")

		return err
	}
}
