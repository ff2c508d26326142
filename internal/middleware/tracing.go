package middleware

import (
	"fmt"
	"strings"

	"conduit/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts a server span per API request. Probe and scrape
// endpoints are not traced.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/health") || path == "/metrics" {
			return c.Next()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", path),
				attribute.String("http.ip", c.IP()),
				attribute.String("http.user_agent", c.Get("User-Agent")),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Set("X-Trace-ID", traceID)
		if requestID := c.Locals("requestid"); requestID != nil {
			span.SetAttributes(attribute.String("request.id", fmt.Sprintf("%v", requestID)))
		}

		c.SetUserContext(ctx)

		err := c.Next()

		// Route is only resolved after the handler chain ran.
		span.SetName(c.Method() + " " + c.Route().Path)
		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		if userID, ok := c.Locals(LocalUserID).(uint); ok {
			span.SetAttributes(attribute.Int("user.id", int(userID)))
		}

		return err
	}
}
