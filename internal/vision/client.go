// Package vision talks to an OpenAI-compatible API to caption images,
// synthesize speech and answer spoken questions about a picture.
package vision

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
	"strings"
	"time"
)

const (
	captionPrompt = "Describe this image for a blind person in two or three short sentences. Mention people, text and obstacles first."
	answerPrompt  = "You are helping a blind person understand their surroundings. Answer the question about this image briefly and concretely."

	speechModel     = "tts-1"
	speechVoice     = "alloy"
	transcribeModel = "whisper-1"

	maxAudioResponse = 20 << 20
)

var (
	ErrNotConfigured = errors.New("vision: api key not configured")
	ErrEmptyInput    = errors.New("vision: empty input")
	ErrUpstream      = errors.New("vision: upstream error")
)

type Describer interface {
	Caption(ctx context.Context, image []byte, contentType string) (string, error)
	Speak(ctx context.Context, text string) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Answer(ctx context.Context, image []byte, contentType, question string) (string, error)
}

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func dataURL(image []byte, contentType string) string {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func (c *Client) Caption(ctx context.Context, image []byte, contentType string) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyInput
	}
	return c.chatAboutImage(ctx, captionPrompt, image, contentType)
}

func (c *Client) Answer(ctx context.Context, image []byte, contentType, question string) (string, error) {
	if len(image) == 0 || strings.TrimSpace(question) == "" {
		return "", ErrEmptyInput
	}
	return c.chatAboutImage(ctx, answerPrompt+"\nQuestion: "+question, image, contentType)
}

func (c *Client) chatAboutImage(ctx context.Context, prompt string, image []byte, contentType string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL(image, contentType)}},
			},
		}},
		MaxTokens: 300,
	}

	var result chatResponse
	if err := c.postJSON(ctx, "/chat/completions", body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUpstream)
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	payload, err := json.Marshal(map[string]string{
		"model":           speechModel,
		"input":           text,
		"voice":           speechVoice,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.do(ctx, "/audio/speech", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioResponse))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return audio, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyInput
	}
	if filename == "" {
		filename = "question.m4a"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model", transcribeModel); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.do(ctx, "/audio/transcriptions", mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.do(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do returns the response only for 200; the caller closes the body.
func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s failed with status %d: %s", ErrUpstream, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
