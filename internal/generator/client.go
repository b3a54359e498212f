package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultBaseURL = "http://127.0.0.1:5000"
	generatePath   = "/generate-mcq"
)

var ErrServiceUnavailable = errors.New("generation service unavailable")

// RawQuestion mirrors one item of the generator's questions array.
type RawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type apiResponse struct {
	Success        bool          `json:"success"`
	Questions      []RawQuestion `json:"questions"`
	TotalQuestions int           `json:"total_questions"`
	Error          string        `json:"error"`
}

// APIError is returned when the generator answers with a non-2xx status or
// with success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("generation failed with status %d", e.StatusCode)
	}
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Generate validates req, posts it to the generation endpoint and returns the
// questions it produced.
func (c *Client) Generate(ctx context.Context, req Request) ([]RawQuestion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	var payload apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = strings.TrimSpace(payload.Error)
		}
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode generator response: %w", decodeErr)
	}
	if !payload.Success {
		message := strings.TrimSpace(payload.Error)
		if message == "" {
			message = "failed to generate questions"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	return payload.Questions, nil
}

func encodeRequest(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	typesJSON, err := json.Marshal(req.QuestionTypes)
	if err != nil {
		return nil, "", err
	}

	fields := []struct {
		name  string
		value string
	}{
		{"num_questions", strconv.Itoa(req.NumQuestions)},
		{"difficulty", req.Difficulty},
		{"time_limit", strconv.Itoa(req.TimeLimit)},
		{"question_types", string(typesJSON)},
	}
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	if req.File != nil {
		part, err := writer.CreateFormFile("file", req.File.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, io.LimitReader(req.File.Body, MaxUploadSize+1)); err != nil {
			return nil, "", err
		}
	} else if err := writer.WriteField("text_content", req.Text); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
