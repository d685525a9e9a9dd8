package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const visionPrompt = "Transcribe every piece of text visible in this image. " +
	"Output the plain text only, preserving line breaks. " +
	"If the image contains no readable text, output nothing."

// Vision transcribes images through an OpenAI-compatible vision model.
type Vision struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewVision creates a vision-model OCR engine. baseURL may point at any
// OpenAI-compatible endpoint; an empty model falls back to gpt-4o-mini.
func NewVision(apiKey, baseURL, model string) *Vision {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Vision{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		apiKey: apiKey,
	}
}

func (v *Vision) Available() error {
	if v.apiKey == "" {
		return fmt.Errorf("vision OCR engine missing API key")
	}
	return nil
}

func (v *Vision) Recognize(ctx context.Context, image []byte) (string, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(image),
		base64.StdEncoding.EncodeToString(image))

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailAuto,
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: visionPrompt,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision transcription: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision transcription returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
