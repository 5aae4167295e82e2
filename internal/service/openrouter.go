package service

import (
	"bufio"
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

	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/domain"
)

// OpenRouterService talks to an OpenAI-compatible chat completion API. It
// implements domain.ModelClient plus the transcription and image-generation
// glue capabilities.
type OpenRouterService struct {
	apiKey      string
	baseURL     string
	model       string
	audioModel  string
	imageModel  string
	temperature float64
	httpClient  *http.Client
}

func NewOpenRouterService(cfg *config.Config) *OpenRouterService {
	return &OpenRouterService{
		apiKey:      cfg.OpenRouterKey,
		baseURL:     "https://openrouter.ai/api/v1",
		model:       cfg.Model,
		audioModel:  cfg.AudioModel,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: config.RequestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func toChatMessages(history []domain.Turn) []chatMessage {
	msgs := make([]chatMessage, len(history))
	for i, t := range history {
		msgs[i] = chatMessage{Role: string(t.Role), Content: t.Content}
	}
	return msgs
}

func (s *OpenRouterService) newChatRequest(ctx context.Context, history []domain.Turn, stream bool) (*http.Request, error) {
	temp := s.temperature
	chatReq := chatRequest{
		Model:       s.model,
		Messages:    toChatMessages(history),
		Temperature: &temp,
		Stream:      stream,
	}

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &domain.ProviderError{StatusCode: resp.StatusCode, Err: domain.ErrRateLimited}
	case http.StatusServiceUnavailable:
		return &domain.ProviderError{StatusCode: resp.StatusCode, Err: domain.ErrUnavailable}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.ProviderError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))),
		}
	}
}

// Complete performs a single-shot chat completion.
func (s *OpenRouterService) Complete(ctx context.Context, history []domain.Turn) (*domain.Completion, error) {
	req, err := s.newChatRequest(ctx, history, false)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Err: fmt.Errorf("chat request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Err: fmt.Errorf("read response: %w", err)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &domain.ProviderError{Err: fmt.Errorf("parse response: %w", err)}
	}

	if len(chatResp.Choices) == 0 {
		return nil, &domain.ProviderError{Err: errors.New("response has no choices")}
	}

	return &domain.Completion{
		Content:          chatResp.Choices[0].Message.Content,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
		TotalTokens:      chatResp.Usage.TotalTokens,
	}, nil
}

// StreamComplete starts a streamed chat completion and returns the fragment
// sequence decoded from the SSE response.
func (s *OpenRouterService) StreamComplete(ctx context.Context, history []domain.Turn) (domain.CompletionStream, error) {
	req, err := s.newChatRequest(ctx, history, true)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Err: fmt.Errorf("stream request: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &sseStream{body: resp.Body, scanner: scanner}, nil
}

// sseStream decodes OpenAI-style "data:" framed chunks from a response body.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (s *sseStream) Recv() (domain.Fragment, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return domain.Fragment{}, io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return domain.Fragment{}, &domain.ProviderError{Err: fmt.Errorf("parse stream chunk: %w", err)}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		frag := domain.Fragment{DeltaContent: chunk.Choices[0].Delta.Content}
		if fr := chunk.Choices[0].FinishReason; fr != nil {
			frag.FinishReason = *fr
		}
		return frag, nil
	}

	if err := s.scanner.Err(); err != nil {
		return domain.Fragment{}, &domain.ProviderError{Err: fmt.Errorf("read stream: %w", err)}
	}
	return domain.Fragment{}, io.EOF
}

func (s *sseStream) Close() error { return s.body.Close() }

// Transcribe uploads voice audio to the transcription endpoint.
func (s *OpenRouterService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "voice.ogg")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := mw.WriteField("model", s.audioModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &domain.ProviderError{Err: fmt.Errorf("transcribe request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.ProviderError{Err: fmt.Errorf("parse transcription: %w", err)}
	}
	return result.Text, nil
}

// GenerateImage renders an image for the prompt and returns the raw bytes.
func (s *OpenRouterService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"model":           s.imageModel,
		"prompt":          prompt,
		"response_format": "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Err: fmt.Errorf("image request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &domain.ProviderError{Err: fmt.Errorf("parse image response: %w", err)}
	}
	if len(result.Data) == 0 {
		return nil, &domain.ProviderError{Err: errors.New("response has no images")}
	}

	img, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, &domain.ProviderError{Err: fmt.Errorf("decode image: %w", err)}
	}
	return img, nil
}
