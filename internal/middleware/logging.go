package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide structured logger.
var Logger *slog.Logger

type logField int

const (
	requestIDField logField = iota
	userIDField
)

// WithRequestID returns ctx carrying id for log records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDField, id)
}

// WithUserID returns ctx carrying the authenticated user for log records.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, userIDField, id)
}

// requestScoped stamps records with the request ID, user ID and trace ID
// found in the record's context.
type requestScoped struct {
	slog.Handler
}

func (h requestScoped) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(requestIDField).(string); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id, ok := ctx.Value(userIDField).(uint); ok {
		r.AddAttrs(slog.Uint64("user_id", uint64(id)))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestScoped) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestScoped{h.Handler.WithAttrs(attrs)}
}

func (h requestScoped) WithGroup(name string) slog.Handler {
	return requestScoped{h.Handler.WithGroup(name)}
}

func init() {
	InitLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), os.Stdout)
}

// InitLogger replaces Logger. Production writes JSON, anything else text.
func InitLogger(env, level string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env := strings.ToLower(env); env == "production" || env == "prod" {
		h = slog.NewJSONHandler(w, opts)
	}
	Logger = slog.New(requestScoped{h})
}

// parseLevel understands slog level names plus "warning"; anything else is info.
func parseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// RequestContext moves the request ID from Fiber locals into the user
// context so services can log it without Fiber.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			c.SetUserContext(WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// RequestLogger writes one record per request once the handler chain ran.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.String("ip", c.IP()),
			slog.Int("bytes", len(c.Response().Body())),
			slog.Duration("latency", time.Since(start)),
		}

		lvl, msg := slog.LevelInfo, "request processed"
		switch {
		case err != nil:
			lvl, msg = slog.LevelError, "request failed"
			attrs = append(attrs, slog.String("error", err.Error()))
		case status >= fiber.StatusInternalServerError:
			lvl = slog.LevelError
		case status >= fiber.StatusBadRequest:
			lvl = slog.LevelWarn
		}
		Logger.LogAttrs(c.UserContext(), lvl, msg, attrs...)
		return err
	}
}
