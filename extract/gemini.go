package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spendkit/spend_service/configs"
	"github.com/spendkit/spend_service/spend_core"
)

const systemPrompt = "You are a professional accounting assistant. Extract data accurately from receipts. " +
	"If the date format is unclear, convert it to YYYY-MM-DD. If quantity is missing, assume 1. " +
	"Respond with a single JSON object with keys vendor_name, date, items (description, quantity, price) and total_amount."

// GeminiExtractor calls the Gemini generateContent REST endpoint and parses
// the structured JSON reply into InvoiceData.
type GeminiExtractor struct {
	cfg    *configs.GeminiConfig
	client *http.Client
}

func NewGeminiExtractor(cfg *configs.GeminiConfig) *GeminiExtractor {
	return &GeminiExtractor{
		cfg: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	SystemInstruction struct {
		Parts []geminiPart `json:"parts"`
	} `json:"system_instruction"`
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"response_mime_type"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiExtractor) Extract(ctx context.Context, fileBytes []byte, textContent string) (*InvoiceData, error) {
	var parts []geminiPart

	if textContent != "" {
		parts = append(parts, geminiPart{Text: textContent})
	}

	if len(fileBytes) > 0 {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: "application/octet-stream",
				Data:     base64.StdEncoding.EncodeToString(fileBytes),
			},
		})
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no file bytes or text content provided", spend_core.ErrExtractionFailed)
	}

	var payload geminiRequest
	payload.SystemInstruction.Parts = []geminiPart{{Text: systemPrompt}}
	payload.Contents = []struct {
		Parts []geminiPart `json:"parts"`
	}{{Parts: parts}}
	payload.GenerationConfig.Temperature = 0
	payload.GenerationConfig.ResponseMimeType = "application/json"

	body, err := json.Marshal(&payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		g.cfg.Model, g.cfg.APIKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", spend_core.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", spend_core.ErrExtractionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gemini status %d", spend_core.ErrExtractionFailed, resp.StatusCode)
	}

	var parsed geminiResponse
	err = json.Unmarshal(raw, &parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", spend_core.ErrExtractionFailed, err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", spend_core.ErrExtractionFailed)
	}

	var data InvoiceData
	err = json.Unmarshal([]byte(parsed.Candidates[0].Content.Parts[0].Text), &data)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable model output: %v", spend_core.ErrExtractionFailed, err)
	}

	return &data, nil
}
