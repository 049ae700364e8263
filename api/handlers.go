package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-api/ai"
	"kanban-api/domain"
)

// requestBodyMaxSize bounds mutation payloads; titles and descriptions are
// small, anything larger is rejected as malformed.
const requestBodyMaxSize = 64 << 10

// Board is the surface of the board controller used by handlers.
type Board interface {
	Load(ctx context.Context) error
	Snapshot() domain.Board
	Divergent() bool
	AddCard(ctx context.Context, title, content string) (domain.Card, error)
	EditCard(ctx context.Context, id, title, content string) error
	DeleteCard(ctx context.Context, id string) error
	Move(ctx context.Context, req domain.MoveRequest) error
}

// Describer generates card descriptions from titles.
type Describer interface {
	Describe(ctx context.Context, title string) (string, error)
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, b Board, gen Describer, logger *log.Logger) {
	e.GET("/api/board", getBoard(b, logger))
	e.POST("/api/cards", postCard(b))
	e.PUT("/api/cards/:id", putCard(b))
	e.DELETE("/api/cards/:id", deleteCard(b))
	e.POST("/api/cards/move", postMove(b))
	e.POST("/api/ai-generate", postAIGenerate(gen, logger))
	e.GET("/healthz", healthz())
}

type errorResponse struct {
	Error string `json:"error"`
}

type boardResponse struct {
	Columns   domain.Board `json:"columns"`
	Divergent bool         `json:"divergent"`
}

type cardPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type aiGeneratePayload struct {
	Title string `json:"title"`
}

type aiGenerateResponse struct {
	Description string `json:"description"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func getBoard(b Board, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		loadErr := b.Load(ctx)
		metrics.ObserveFetch(time.Since(fetchStart))
		if loadErr != nil {
			// The previous snapshot keeps serving; Load already logged.
			metrics.SetErrorStage("storage")
		}

		snap := b.Snapshot()
		metrics.SetCardsReturned(len(snap.Todo) + len(snap.Doing) + len(snap.Done))
		divergent := b.Divergent()
		metrics.SetDivergent(divergent)

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, boardResponse{Columns: snap, Divergent: divergent})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postCard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body cardPayload
		if err := decodeBody(c, &body); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		card, err := b.AddCard(c.Request().Context(), body.Title, body.Content)
		if err != nil {
			return writeBoardError(c, err)
		}
		return c.JSON(http.StatusCreated, card)
	}
}

func putCard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body cardPayload
		if err := decodeBody(c, &body); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := b.EditCard(c.Request().Context(), c.Param("id"), body.Title, body.Content); err != nil {
			return writeBoardError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteCard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := b.DeleteCard(c.Request().Context(), c.Param("id")); err != nil {
			return writeBoardError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postMove(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req domain.MoveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if err := b.Move(c.Request().Context(), req); err != nil {
			return writeBoardError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func postAIGenerate(gen Describer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body aiGeneratePayload
		if err := decodeBody(c, &body); err != nil || strings.TrimSpace(body.Title) == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: `Missing "title"`})
		}
		desc, err := gen.Describe(c.Request().Context(), body.Title)
		if err != nil {
			if errors.Is(err, ai.ErrNotConfigured) {
				return c.JSON(http.StatusInternalServerError, errorResponse{Error: ai.ErrNotConfigured.Error()})
			}
			logger.WithError(err).Error("ai description request failed")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to call the OpenAI API."})
		}
		return c.JSON(http.StatusOK, aiGenerateResponse{Description: desc})
	}
}

func writeBoardError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidMove):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStaleMove):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStorageDisabled):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "persistence failure"})
	}
}
