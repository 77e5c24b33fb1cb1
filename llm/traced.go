package llm

import (
	"context"

	"chatrelay/relay"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type tracedProvider struct {
	Provider
	tracer trace.Tracer
}

// Traced wraps p so every vendor call runs in its own client span.
func Traced(p Provider) Provider {
	if _, ok := p.(*tracedProvider); ok {
		return p
	}
	return &tracedProvider{Provider: p, tracer: otel.Tracer("chatrelay/llm")}
}

func (t *tracedProvider) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("llm.provider", t.Name())),
	)
}

func (t *tracedProvider) Complete(ctx context.Context, prompt string) (relay.Fragment, error) {
	ctx, span := t.start(ctx, "Provider.Complete")
	defer span.End()

	fragment, err := t.Provider.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fragment, err
	}
	span.SetAttributes(attribute.Bool("llm.absent", fragment.Text == nil))
	return fragment, nil
}

func (t *tracedProvider) StreamFragments(ctx context.Context, prompt string, fragmentChan chan<- relay.Fragment) error {
	ctx, span := t.start(ctx, "Provider.StreamFragments")
	defer span.End()

	err := t.Provider.StreamFragments(ctx, prompt, fragmentChan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
