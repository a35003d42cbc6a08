// Package openai is a minimal client for the OpenAI image edit endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("openai: api key is required")

const (
	// DefaultMaxResponseBytes fits ten large base64 encoded images.
	DefaultMaxResponseBytes int64 = 128 << 20
	DefaultMaxImageBytes    int64 = 32 << 20
)

// Options configures the client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	RequestTimeout time.Duration

	// MaxResponseBytes caps the edit response body, MaxImageBytes each
	// downloaded image. Zero uses the defaults.
	MaxResponseBytes int64
	MaxImageBytes    int64
}

// Client calls POST {base}/images/edits.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
	maxResp    int64
	maxImage   int64
}

// EditRequest is one image edit call. Empty option fields are omitted so the
// provider applies its own defaults.
type EditRequest struct {
	Image      []byte
	ImageName  string
	ImageMIME  string
	Prompt     string
	N          int
	Size       string
	Quality    string
	Background string
}

type editResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// NewClient constructs a client with defaults for unset options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-image-1"
	}
	maxResp := opts.MaxResponseBytes
	if maxResp <= 0 {
		maxResp = DefaultMaxResponseBytes
	}
	maxImage := opts.MaxImageBytes
	if maxImage <= 0 {
		maxImage = DefaultMaxImageBytes
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
		maxResp:    maxResp,
		maxImage:   maxImage,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// EditImage sends the source image and prompt and returns the decoded images
// in the order the provider listed them.
func (c *Client) EditImage(ctx context.Context, req EditRequest) ([][]byte, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if len(req.Image) == 0 {
		return nil, errors.New("openai: image is required")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("openai: prompt is required")
	}

	body, contentType, err := c.encodeForm(req, prompt)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", body)
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := readLimited(resp.Body, c.maxResp)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			return nil, fmt.Errorf("openai: status %d: %s (%s)", resp.StatusCode, detail.Error.Message, detail.Error.Type)
		}
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded editResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, errors.New("openai: response contained no images")
	}

	images := make([][]byte, 0, len(decoded.Data))
	for i, item := range decoded.Data {
		var data []byte
		switch {
		case item.B64JSON != "":
			data, err = base64.StdEncoding.DecodeString(item.B64JSON)
			if err != nil {
				return nil, fmt.Errorf("openai: decode image %d: %w", i, err)
			}
		case item.URL != "":
			data, err = c.download(ctx, item.URL)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("openai: image %d has neither data nor url", i)
		}
		images = append(images, data)
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("images", len(images)).
		Dur("took", time.Since(start)).
		Msg("openai: image edit completed")
	return images, nil
}

func (c *Client) encodeForm(req EditRequest, prompt string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := strings.TrimSpace(req.ImageName)
	if name == "" {
		name = "image.png"
	}
	mimeType := strings.TrimSpace(req.ImageMIME)
	if mimeType == "" {
		mimeType = "image/png"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("openai: create image part: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", fmt.Errorf("openai: write image part: %w", err)
	}

	fields := [][2]string{
		{"model", c.model},
		{"prompt", prompt},
	}
	if req.N > 0 {
		fields = append(fields, [2]string{"n", strconv.Itoa(req.N)})
	}
	for _, opt := range [][2]string{{"size", req.Size}, {"quality", req.Quality}, {"background", req.Background}} {
		if v := strings.TrimSpace(opt[1]); v != "" {
			fields = append(fields, [2]string{opt[0], v})
		}
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("openai: write field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("openai: close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("openai: invalid image url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("openai: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai: download status %d", resp.StatusCode)
	}
	data, err := readLimited(resp.Body, c.maxImage)
	if err != nil {
		return nil, fmt.Errorf("openai: read image: %w", err)
	}
	return data, nil
}

// readLimited reads r fully but fails once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return data, nil
}
