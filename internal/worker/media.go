package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// Provider endpoints.
const (
	TogetherImagesURL = "https://api.together.xyz/v1/images/generations"
	PexelsVideosURL   = "https://api.pexels.com/videos/search"

	togetherImageModel = "black-forest-labs/FLUX.1-schnell"
	imagePromptMax     = 2000
	minVideoWidth      = 1280
	mediaBodyMax       = 20 << 20
	defaultMediaTimeout = 60 * time.Second
)

// ImageGenerator produces images with Together's FLUX endpoint.
type ImageGenerator struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

// NewImageGenerator returns a generator, or nil when apiKey is empty so
// callers can treat the provider as disabled.
func NewImageGenerator(apiKey string) *ImageGenerator {
	if apiKey == "" {
		return nil
	}
	return &ImageGenerator{APIKey: apiKey, Endpoint: TogetherImagesURL, Client: &http.Client{Timeout: defaultMediaTimeout}}
}

type togetherRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Steps  int    `json:"steps"`
	N      int    `json:"n"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type togetherResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Find implements MediaFinder. The prompt is a generation prompt; the
// result is a hosted URL or an inline data URI.
func (g *ImageGenerator) Find(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.APIKey == "" {
		return "", unavailable("together", "TOGETHER_API_KEY")
	}
	body, err := json.Marshal(togetherRequest{
		Model:  togetherImageModel,
		Prompt: headRunes(prompt, imagePromptMax),
		Steps:  10,
		N:      1,
		Width:  1024,
		Height: 1024,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var out togetherResponse
	if err := doJSON(g.Client, req, &out); err != nil {
		return "", fmt.Errorf("together: %w", err)
	}
	if len(out.Data) == 0 {
		return "", nil
	}
	first := out.Data[0]
	switch {
	case first.URL != "":
		return first.URL, nil
	case first.B64JSON != "":
		return "data:image/png;base64," + first.B64JSON, nil
	default:
		return "", nil
	}
}

// VideoFinder searches Pexels for stock footage.
type VideoFinder struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

// NewVideoFinder returns a finder, or nil when apiKey is empty.
func NewVideoFinder(apiKey string) *VideoFinder {
	if apiKey == "" {
		return nil
	}
	return &VideoFinder{APIKey: apiKey, Endpoint: PexelsVideosURL, Client: &http.Client{Timeout: defaultMediaTimeout}}
}

type pexelsResponse struct {
	Videos []struct {
		Files []struct {
			Link  string `json:"link"`
			Width int    `json:"width"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Find implements MediaFinder. It prefers the first HD file of the top
// result and falls back to its first file.
func (v *VideoFinder) Find(ctx context.Context, query string) (string, error) {
	if v == nil || v.APIKey == "" {
		return "", unavailable("pexels", "PEXELS_API_KEY")
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", v.APIKey)

	var out pexelsResponse
	if err := doJSON(v.Client, req, &out); err != nil {
		return "", fmt.Errorf("pexels: %w", err)
	}
	if len(out.Videos) == 0 || len(out.Videos[0].Files) == 0 {
		return "", nil
	}
	files := out.Videos[0].Files
	for _, f := range files {
		if f.Width >= minVideoWidth && f.Link != "" {
			return f.Link, nil
		}
	}
	return files[0].Link, nil
}

func doJSON(client *http.Client, req *http.Request, into any) error {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req) //nolint:gosec // provider endpoints are fixed
	if err != nil {
		return foundryerrors.Join(foundryerrors.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, mediaBodyMax))
	if err != nil {
		return foundryerrors.Join(foundryerrors.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", foundryerrors.ErrNetwork, resp.StatusCode, strings.TrimSpace(headRunes(string(data), 200)))
	}
	return json.Unmarshal(data, into)
}

func headRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

var (
	_ MediaFinder = (*ImageGenerator)(nil)
	_ MediaFinder = (*VideoFinder)(nil)
)
