package llm

import (
	"context"
	"strings"

	"chatrelay/common"
	"chatrelay/relay"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultModel = "claude-sonnet-4-5"
const anthropicDefaultMaxTokens = 4096

type AnthropicProvider struct {
	client  anthropic.Client
	options Options
}

func NewAnthropicProvider(apiKey string, options Options) *AnthropicProvider {
	clientOptions := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(options.httpClient()),
		option.WithMaxRetries(0),
	}
	if options.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(options.BaseURL))
	}
	return &AnthropicProvider{
		client:  anthropic.NewClient(clientOptions...),
		options: options,
	}
}

func (p *AnthropicProvider) Name() string {
	return common.ProviderTypeAnthropic
}

func (p *AnthropicProvider) params(prompt string) anthropic.MessageNewParams {
	maxTokens := anthropicDefaultMaxTokens
	if p.options.MaxTokens > 0 {
		maxTokens = p.options.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.options.modelOrDefault(anthropicDefaultModel)),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.options.Temperature != nil {
		params.Temperature = anthropic.Float(*p.options.Temperature)
	}
	return params
}

func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (relay.Fragment, error) {
	message, err := p.client.Messages.New(ctx, p.params(prompt))
	if err != nil {
		return relay.AbsentFragment(), wrapAnthropicError(p.Name(), err)
	}

	var text strings.Builder
	found := false
	for _, block := range message.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
			found = true
		}
	}
	if !found {
		return relay.AbsentFragment(), nil
	}
	return relay.TextFragment(text.String()), nil
}

func (p *AnthropicProvider) StreamFragments(ctx context.Context, prompt string, fragmentChan chan<- relay.Fragment) error {
	stream := p.client.Messages.NewStreaming(ctx, p.params(prompt))
	defer stream.Close()

	for stream.Next() {
		if err := relay.Send(ctx, fragmentChan, anthropicEventFragment(stream.Current())); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		return wrapAnthropicError(p.Name(), err)
	}
	return nil
}

// anthropicEventFragment maps one message stream event to a fragment. Only
// text deltas carry text; message_start, ping, content_block_start/stop,
// message_delta, message_stop, thinking and tool input deltas do not.
func anthropicEventFragment(event anthropic.MessageStreamEventUnion) relay.Fragment {
	evt, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
	if !ok {
		return relay.AbsentFragment()
	}
	delta, ok := evt.Delta.AsAny().(anthropic.TextDelta)
	if !ok {
		return relay.AbsentFragment()
	}
	return relay.TextFragment(delta.Text)
}
