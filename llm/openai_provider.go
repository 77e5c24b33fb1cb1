package llm

import (
	"context"

	"chatrelay/common"
	"chatrelay/relay"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

const openaiDefaultModel = "gpt-4.1-mini"

type OpenAIProvider struct {
	client  openai.Client
	options Options
}

func NewOpenAIProvider(apiKey string, options Options) *OpenAIProvider {
	clientOptions := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(options.httpClient()),
		option.WithMaxRetries(0),
	}
	if options.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(options.BaseURL))
	}
	return &OpenAIProvider{
		client:  openai.NewClient(clientOptions...),
		options: options,
	}
}

func (p *OpenAIProvider) Name() string {
	return common.ProviderTypeOpenAI
}

func (p *OpenAIProvider) params(prompt string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: shared.ChatModel(p.options.modelOrDefault(openaiDefaultModel)),
	}
	if p.options.Temperature != nil {
		params.Temperature = openai.Float(*p.options.Temperature)
	}
	if p.options.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(p.options.MaxTokens))
	}
	return params
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (relay.Fragment, error) {
	completion, err := p.client.Chat.Completions.New(ctx, p.params(prompt))
	if err != nil {
		return relay.AbsentFragment(), wrapOpenAIError(p.Name(), err)
	}
	if len(completion.Choices) == 0 || !completion.Choices[0].Message.JSON.Content.Valid() {
		return relay.AbsentFragment(), nil
	}
	return relay.TextFragment(completion.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) StreamFragments(ctx context.Context, prompt string, fragmentChan chan<- relay.Fragment) error {
	params := p.params(prompt)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		if err := relay.Send(ctx, fragmentChan, openaiChunkFragment(stream.Current())); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		return wrapOpenAIError(p.Name(), err)
	}
	return nil
}

// openaiChunkFragment maps one chat.completion.chunk to a fragment. Role-only
// deltas, null content and the trailing usage-only chunk carry no text.
func openaiChunkFragment(chunk openai.ChatCompletionChunk) relay.Fragment {
	if len(chunk.Choices) == 0 {
		return relay.AbsentFragment()
	}
	delta := chunk.Choices[0].Delta
	if !delta.JSON.Content.Valid() {
		return relay.AbsentFragment()
	}
	return relay.TextFragment(delta.Content)
}
