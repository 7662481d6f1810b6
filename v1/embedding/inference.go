package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// InferenceProvider calls an OpenAI-compatible /embeddings endpoint.
type InferenceProvider struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

// NewInferenceProvider builds a provider from cfg. Only the endpoint is required.
func NewInferenceProvider(cfg *Config) (*InferenceProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("inference: missing EMBEDDING_ENDPOINT")
	}

	// Remove trailing slash if user added it.
	base := strings.TrimRight(cfg.Endpoint, "/")

	timeout := cfg.HTTPTimeoutS
	if timeout <= 0 {
		timeout = DefaultHTTPTimeoutS
	}

	return &InferenceProvider{
		baseURL:      base,
		serviceToken: cfg.ServiceToken,
		httpClient:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

// Create generates embeddings for the given texts using the specified model.
// Results are ordered by the index the server reports for each item.
func (p *InferenceProvider) Create(ctx context.Context, model string, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("inference: no texts provided")
	}
	if model == "" {
		return nil, fmt.Errorf("inference: model is required")
	}

	reqBody := map[string]any{
		"model": model,
		"input": texts,
	}

	url := fmt.Sprintf("%s/embeddings", p.baseURL)

	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	if err := p.postJSON(ctx, url, reqBody, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("inference: got %d embeddings for %d texts", len(parsed.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("inference: invalid or duplicate embedding index %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}

	return out, nil
}

// Close releases idle HTTP connections.
func (p *InferenceProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
