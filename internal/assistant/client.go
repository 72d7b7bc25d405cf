package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

var ErrDisabled = errors.New("assistant is not configured")

const (
	defaultModel = "gemini-1.5-flash-latest"

	systemPreamble = "You are a helpful AI health assistant. Provide preliminary health " +
		"guidance and information. Always remind users to consult healthcare professionals " +
		"for medical decisions. Be empathetic, informative, and safety-conscious."
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type completeRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type completeResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// blockMediumAndAbove mirrors the safety configuration the patient
// assistant has always shipped with.
var blockMediumAndAbove = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Client talks to the generative-text API. The service is opaque to the
// rest of the portal: prompt in, text out.
type Client struct {
	httpClient *resty.Client
	apiKey     string
	model      string
	log        zerolog.Logger
}

func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		model:      defaultModel,
		log:        log.With().Str("component", "assistant").Logger(),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Complete sends a user message wrapped in the health-assistant preamble
// and returns the generated reply.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	prompt := fmt.Sprintf("%s\n\nUser message: %s\n\nPlease respond with helpful, accurate health information while emphasizing the importance of professional medical consultation for serious concerns.",
		systemPreamble, message)

	req := completeRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
		SafetySettings: blockMediumAndAbove,
	}

	var out completeResponse
	var apiErr apiError

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1beta/models/" + c.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("call completion API: %w", err)
	}

	if !resp.IsSuccess() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		c.log.Warn().Int("status", resp.StatusCode()).Str("message", msg).Msg("completion API error")
		return "", fmt.Errorf("completion API: %s", msg)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("completion API returned no candidates")
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}
