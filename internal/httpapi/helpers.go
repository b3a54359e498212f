package httpapi

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"mcq-app/internal/generator"
	"mcq-app/internal/quiz"
)

// Multipart overhead allowed on top of the document itself.
const formOverhead = 1 << 20

var validationErrors = []error{
	generator.ErrNoContent,
	generator.ErrAmbiguousContent,
	generator.ErrTextTooShort,
	generator.ErrUnsupportedFile,
	generator.ErrFileTooLarge,
	generator.ErrInvalidDifficulty,
	generator.ErrNoQuestionTypes,
	generator.ErrInvalidQuestionType,
}

func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *generator.APIError

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, quiz.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrOutOfRange):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: apiErr.Message})
	case errors.Is(err, generator.ErrServiceUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "question generator unavailable"})
	case errors.Is(err, quiz.ErrInvalidQuestion), errors.Is(err, quiz.ErrNoQuestions):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

// parseGenerateForm reads the same multipart fields the generator accepts.
// The returned closer releases an uploaded file, if any.
func parseGenerateForm(w http.ResponseWriter, r *http.Request) (generator.Request, func(), error) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, generator.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return generator.Request{}, noop, generator.ErrFileTooLarge
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return generator.Request{}, noop, errors.New("invalid form body")
		}
		if err := r.ParseForm(); err != nil {
			return generator.Request{}, noop, errors.New("invalid form body")
		}
	}

	req := generator.Request{
		Text:       r.FormValue("text_content"),
		Difficulty: r.FormValue("difficulty"),
	}

	var err error
	if req.NumQuestions, err = parseIntField(r, "num_questions"); err != nil {
		return generator.Request{}, noop, err
	}
	if req.TimeLimit, err = parseIntField(r, "time_limit"); err != nil {
		return generator.Request{}, noop, err
	}
	if req.QuestionTypes, err = parseQuestionTypes(r.FormValue("question_types")); err != nil {
		return generator.Request{}, noop, err
	}

	if r.MultipartForm == nil {
		return req, noop, nil
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, noop, nil
	}
	if err != nil {
		return generator.Request{}, noop, errors.New("invalid file upload")
	}
	req.File = uploadFromHeader(file, header)
	return req, func() { _ = file.Close() }, nil
}

func uploadFromHeader(file multipart.File, header *multipart.FileHeader) *generator.Upload {
	return &generator.Upload{
		Name: header.Filename,
		Size: header.Size,
		Body: file,
	}
}

func parseIntField(r *http.Request, key string) (int, error) {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return 0, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return parsed, nil
}

// parseQuestionTypes accepts a JSON array or a comma separated list.
func parseQuestionTypes(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return generator.DefaultQuestionTypes(), nil
	}
	if strings.HasPrefix(value, "[") {
		var types []string
		if err := json.Unmarshal([]byte(value), &types); err != nil {
			return nil, errors.New("question_types must be a JSON array of strings")
		}
		return types, nil
	}

	types := make([]string, 0, 3)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			types = append(types, item)
		}
	}
	return types, nil
}

func writeMethodNotAllowed(w http.ResponseWriter, allowedMethod string) {
	w.Header().Set("Allow", allowedMethod)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
