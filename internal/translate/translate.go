// Package translate turns English catalog text into the regional language
// through a LibreTranslate-compatible HTTP service.
package translate

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrDisabled is returned by the Disabled translator.
var ErrDisabled = errors.New("translation disabled")

type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
	// TranslateBatch returns one translation per input, in order.
	TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error)
}

// New returns a Client for url, or Disabled when url is empty.
func New(url, apiKey string, timeout time.Duration) Translator {
	if url == "" {
		return Disabled{}
	}
	return NewClient(url, apiKey, timeout)
}

type Disabled struct{}

func (Disabled) Translate(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) TranslateBatch(context.Context, []string, string) ([]string, error) {
	return nil, ErrDisabled
}

type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// NewClient posts to url. A zero timeout leaves requests bounded only by the
// caller's context.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

type translateRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
	APIKey string   `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText []string `json:"translatedText"`
	Error          string   `json:"error"`
}

func (c *Client) Translate(ctx context.Context, text, target string) (string, error) {
	out, err := c.TranslateBatch(ctx, []string{text}, target)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

func (c *Client) TranslateBatch(ctx context.Context, texts []string, target string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	payload, err := json.Marshal(translateRequest{
		Q:      texts,
		Source: "auto",
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode translate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build translate request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "translate request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read translate response")
	}

	var out translateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("translate service returned %d", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "decode translate response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("translate service returned %d: %s", resp.StatusCode, out.Error)
	}
	if len(out.TranslatedText) != len(texts) {
		return nil, errors.Errorf("translate service returned %d results for %d inputs",
			len(out.TranslatedText), len(texts))
	}
	return out.TranslatedText, nil
}
