package llm

import (
	"context"
	"fmt"
	"strings"

	"chatrelay/common"
	"chatrelay/relay"

	"google.golang.org/genai"
)

const googleDefaultModel = "gemini-2.5-flash"

type GoogleProvider struct {
	client  *genai.Client
	options Options
}

func NewGoogleProvider(apiKey string, options Options) (*GoogleProvider, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: options.httpClient(),
	}
	if options.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: options.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", common.ProviderTypeGoogle, err)
	}
	return &GoogleProvider{client: client, options: options}, nil
}

func (p *GoogleProvider) Name() string {
	return common.ProviderTypeGoogle
}

func (p *GoogleProvider) config() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if p.options.Temperature != nil {
		temperature := float32(*p.options.Temperature)
		config.Temperature = &temperature
	}
	if p.options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(p.options.MaxTokens)
	}
	return config
}

func (p *GoogleProvider) Complete(ctx context.Context, prompt string) (relay.Fragment, error) {
	model := p.options.modelOrDefault(googleDefaultModel)
	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), p.config())
	if err != nil {
		return relay.AbsentFragment(), wrapGoogleError(p.Name(), err)
	}
	return googleResultFragment(result), nil
}

func (p *GoogleProvider) StreamFragments(ctx context.Context, prompt string, fragmentChan chan<- relay.Fragment) error {
	model := p.options.modelOrDefault(googleDefaultModel)
	stream := p.client.Models.GenerateContentStream(ctx, model, genai.Text(prompt), p.config())

	for result, err := range stream {
		if err != nil {
			return wrapGoogleError(p.Name(), err)
		}
		if err := relay.Send(ctx, fragmentChan, googleResultFragment(result)); err != nil {
			return err
		}
	}
	return nil
}

// googleResultFragment joins the text parts of the first candidate. Thought
// parts, function calls and chunks without candidates carry no text.
func googleResultFragment(result *genai.GenerateContentResponse) relay.Fragment {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return relay.AbsentFragment()
	}

	var text strings.Builder
	found := false
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		text.WriteString(part.Text)
		found = true
	}
	if !found {
		return relay.AbsentFragment()
	}
	return relay.TextFragment(text.String())
}
