package llm

import (
	"context"
	"errors"
	"io"

	"chatrelay/relay"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAICompatibleProvider talks to servers that implement the OpenAI chat
// completions API at a custom base URL (vLLM, Ollama, LiteLLM, ...).
type OpenAICompatibleProvider struct {
	name    string
	client  *goopenai.Client
	options Options
}

func NewOpenAICompatibleProvider(name, apiKey string, options Options) *OpenAICompatibleProvider {
	config := goopenai.DefaultConfig(apiKey)
	if options.BaseURL != "" {
		config.BaseURL = options.BaseURL
	}
	config.HTTPClient = options.httpClient()
	return &OpenAICompatibleProvider{
		name:    name,
		client:  goopenai.NewClientWithConfig(config),
		options: options,
	}
}

func (p *OpenAICompatibleProvider) Name() string {
	return p.name
}

func (p *OpenAICompatibleProvider) request(prompt string) goopenai.ChatCompletionRequest {
	// a zero temperature is omitted from the request, leaving the server default
	var temperature float32
	if p.options.Temperature != nil {
		temperature = float32(*p.options.Temperature)
	}
	return goopenai.ChatCompletionRequest{
		Model: p.options.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.options.MaxTokens,
		Temperature: temperature,
	}
}

func (p *OpenAICompatibleProvider) Complete(ctx context.Context, prompt string) (relay.Fragment, error) {
	res, err := p.client.CreateChatCompletion(ctx, p.request(prompt))
	if err != nil {
		return relay.AbsentFragment(), wrapOpenAICompatibleError(p.name, err)
	}
	if len(res.Choices) == 0 {
		return relay.AbsentFragment(), nil
	}
	return relay.TextFragment(res.Choices[0].Message.Content), nil
}

func (p *OpenAICompatibleProvider) StreamFragments(ctx context.Context, prompt string, fragmentChan chan<- relay.Fragment) error {
	req := p.request(prompt)
	req.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return wrapOpenAICompatibleError(p.name, err)
	}
	defer stream.Close()

	for {
		res, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return wrapOpenAICompatibleError(p.name, err)
		}

		fragment := relay.AbsentFragment()
		if len(res.Choices) > 0 {
			fragment = relay.TextFragment(res.Choices[0].Delta.Content)
		}
		if err := relay.Send(ctx, fragmentChan, fragment); err != nil {
			return err
		}
	}
}
