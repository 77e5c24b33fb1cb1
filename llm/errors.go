package llm

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"
	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ProviderError wraps any failure coming out of a vendor SDK. StatusCode is
// the vendor's HTTP status when the failure was an API error response, and 0
// for transport or decoding failures.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func wrapOpenAIError(provider string, err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, Err: err}
	}

	method, url := requestTarget(apiErr.Request)

	// If the library parsed the error body (standard OpenAI format), the
	// Message field is populated.
	if apiErr.Message != "" {
		return &ProviderError{
			Provider:   provider,
			StatusCode: apiErr.StatusCode,
			Err: fmt.Errorf("%s %q: %d (message: %s, type: %s, code: %s)",
				method, url, apiErr.StatusCode, apiErr.Message, apiErr.Type, apiErr.Code),
		}
	}

	// Otherwise keep only the raw response body, without headers.
	if apiErr.Response != nil {
		dump := apiErr.DumpResponse(true)
		body := dump
		for _, sep := range [][]byte{[]byte("\r\n\r\n"), []byte("\n\n")} {
			if parts := bytes.SplitN(dump, sep, 2); len(parts) == 2 {
				body = bytes.TrimSpace(parts[1])
				break
			}
		}
		if len(body) > 0 {
			return &ProviderError{
				Provider:   provider,
				StatusCode: apiErr.StatusCode,
				Err:        fmt.Errorf("%s %q: %d - response body: %s", method, url, apiErr.StatusCode, string(body)),
			}
		}
	}

	return &ProviderError{Provider: provider, StatusCode: apiErr.StatusCode, Err: err}
}

func requestTarget(req *http.Request) (string, string) {
	if req == nil || req.URL == nil {
		return "", ""
	}
	return req.Method, req.URL.String()
}

func wrapAnthropicError(provider string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, StatusCode: apiErr.StatusCode, Err: err}
	}
	return &ProviderError{Provider: provider, Err: err}
}

func wrapGoogleError(provider string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, StatusCode: apiErr.Code, Err: err}
	}
	return &ProviderError{Provider: provider, Err: err}
}

func wrapOpenAICompatibleError(provider string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: provider, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &ProviderError{Provider: provider, Err: err}
}
