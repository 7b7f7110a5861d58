// Package grader wraps the remote grading service: prompt assembly,
// the Messages API call, and a retry policy for transient failures.
package grader

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/extract"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/ingest"
)

// ErrorPrefix marks a per-file failure standing in for feedback text.
// Downstream parsing degrades gracefully on it (score "N/A").
const ErrorPrefix = "⚠️ Error: "

const maxOutputTokens = 3500

// Client grades report files against a fixed rubric.
type Client struct {
	api    anthropic.Client
	policy Policy
	rubric string
}

// New builds a client. The SDK's own retry loop is disabled; the Policy
// owns all retry behavior so it stays testable and bounded.
func New(apiKey, rubric string, policy Policy) *Client {
	if rubric == "" {
		rubric = DefaultRubric
	}
	return &Client{
		api:    anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
		policy: policy,
		rubric: rubric,
	}
}

// Grade runs one report through the grading service and returns the raw
// feedback text. It never returns an error: every failure mode comes back
// as an inline error string so the batch keeps moving.
func (c *Client) Grade(ctx context.Context, file ingest.ReportFile, model string) string {
	content := extract.FromReport(file)
	blocks := buildBlocks(c.rubric, content)

	text, err := c.policy.Do(ctx, func() (string, error) {
		return c.call(ctx, model, blocks)
	})
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	return text
}

func (c *Client) call(ctx context.Context, model string, blocks []anthropic.ContentBlockParamUnion) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxOutputTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", err
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in grading response")
}

// buildBlocks assembles the user message: instruction preamble plus rubric,
// then the extracted text and any embedded images for word documents, or
// the single encoded document/image for everything else.
func buildBlocks(rubric string, content extract.Content) []anthropic.ContentBlockParamUnion {
	if content.Blob != nil {
		blocks := []anthropic.ContentBlockParamUnion{
			anthropic.NewTextBlock(UserInstructions + "\n--- RUBRIC START ---\n" + rubric + "\n--- RUBRIC END ---\n"),
		}
		if content.Blob.MediaType == "application/pdf" {
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
				Data: content.Blob.Base64,
			}))
		} else {
			blocks = append(blocks, anthropic.NewImageBlockBase64(content.Blob.MediaType, content.Blob.Base64))
		}
		return blocks
	}

	prompt := UserInstructions +
		"\n--- RUBRIC START ---\n" + rubric + "\n--- RUBRIC END ---\n\n" +
		"STUDENT TEXT:\n" + content.Text
	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)}
	for _, img := range content.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, img.Base64))
	}
	return blocks
}

// IsTransient reports whether the service failure is worth retrying:
// rate limits (429) and overloaded responses (529). Anything else fails
// the file immediately.
func IsTransient(err error) bool {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == 429 || apierr.StatusCode == 529
	}
	return false
}
