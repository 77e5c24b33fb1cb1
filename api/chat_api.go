package api

import (
	"context"
	"errors"
	"net/http"

	"chatrelay/logger"
	"chatrelay/relay"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ChatHandler relays the message and responds with the whole reply as a
// JSON string. A reply with no text is "".
func (ctrl *Controller) ChatHandler(c *gin.Context) {
	req, ok := ctrl.bindChatRequest(c)
	if !ok {
		return
	}

	text, err := ctrl.pool.Complete(c.Request.Context(), ctrl.provider, req.Message)
	if err != nil {
		ctrl.providerFailureHandler(c, err)
		return
	}

	c.JSON(http.StatusOK, text)
}

// StreamChatHandler streams the reply as plain data records.
func (ctrl *Controller) StreamChatHandler(c *gin.Context) {
	ctrl.streamChat(c, relay.ModePlain)
}

// StreamChatSSEHandler streams the reply as chat.message events with
// per-request sequential ids.
func (ctrl *Controller) StreamChatSSEHandler(c *gin.Context) {
	ctrl.streamChat(c, relay.ModeStructured)
}

func writeStreamHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
}

// streamChat writes one record per non-empty fragment as it arrives.
//
// The status line is committed with the first record, so a provider that
// fails before producing any text still gets a 500 JSON response. That
// includes a failure after fragments that were all dropped as empty, since
// only written records commit the response. A failure after records were
// written aborts the connection without a terminating record so the client
// can tell a truncated stream from a complete one.
func (ctrl *Controller) streamChat(c *gin.Context, mode relay.Mode) {
	req, ok := ctrl.bindChatRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	l := logger.Ctx(ctx).With().Str("mode", string(mode)).Logger()

	pipeline := relay.Stream(ctx, ctrl.provider, req.Message, mode)
	defer pipeline.Close()

	encoder := relay.NewEncoder(c.Writer)
	committed := false
	for pipeline.Next() {
		if !committed {
			writeStreamHeaders(c)
			committed = true
		}
		if err := encoder.Encode(pipeline.Current()); err != nil {
			l.Debug().Err(err).Int("emitted", pipeline.Emitted()).Msg("client went away mid-stream")
			return
		}
		c.Writer.Flush()
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("relay.emitted", pipeline.Emitted()),
		attribute.Int("relay.dropped", pipeline.Dropped()),
	)

	if err := pipeline.Err(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			l.Debug().Int("emitted", pipeline.Emitted()).Msg("client cancelled stream")
			return
		}
		if !committed {
			ctrl.providerFailureHandler(c, err)
			return
		}
		l.Error().Err(err).
			Int("emitted", pipeline.Emitted()).
			Int("dropped", pipeline.Dropped()).
			Msg("provider stream failed, aborting response")
		pipeline.Close()
		panic(http.ErrAbortHandler)
	}

	if !committed {
		writeStreamHeaders(c)
	}
	l.Info().
		Int("emitted", pipeline.Emitted()).
		Int("dropped", pipeline.Dropped()).
		Msg("stream completed")
}
