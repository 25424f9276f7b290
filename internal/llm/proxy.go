package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/restclient"
)

// DefaultProxyURL is the hosted Gemini proxy
const DefaultProxyURL = "https://margivial.cravii.ng/api/gemini-proxy.php"

// Defaults the proxy applies when a prompt leaves them unset
const (
	proxyTemperature = 0.4
	proxyMaxTokens   = 200
)

// Proxy generates text through the hosted Gemini proxy, which holds the key
// server side
type Proxy struct {
	url  string
	http *resty.Client
}

// NewProxy creates a proxy generator
func NewProxy(cfg *Config) *Proxy {
	url := cfg.ProxyURL
	if url == "" {
		url = DefaultProxyURL
	}
	return &Proxy{url: url, http: restclient.New(cfg.Timeout)}
}

// Name returns the provider name
func (p *Proxy) Name() string {
	return ProviderProxy
}

type proxyRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type proxyResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Generate posts the prompt to the proxy. A 429 is reported as rate limited.
func (p *Proxy) Generate(ctx context.Context, prompt Prompt) (string, error) {
	body := proxyRequest{
		Prompt:      prompt.Text,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}
	// The proxy defaults apply to a bare prompt only, so an explicit
	// temperature of 0 is sent as is.
	if prompt == (Prompt{Text: prompt.Text}) {
		body.Temperature = proxyTemperature
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = proxyMaxTokens
	}

	var resp proxyResponse
	r, err := restclient.JSON(p.http).
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post(p.url)
	if r != nil && r.StatusCode() == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: gemini proxy: rate limited", apperr.ErrBackend)
	}
	if err := restclient.Check("gemini proxy", r, err); err != nil {
		if resp.Error != "" {
			return "", fmt.Errorf("%w (%s)", err, resp.Error)
		}
		return "", err
	}
	return clean(ProviderProxy, resp.Result)
}
