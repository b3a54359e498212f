package generator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultNumQuestions = 10
	DefaultDifficulty   = "medium"

	MinTextLength = 50
	MaxUploadSize = 16 * 1024 * 1024
)

var (
	ErrNoContent           = errors.New("no content provided")
	ErrAmbiguousContent    = errors.New("provide either text or a file, not both")
	ErrTextTooShort        = fmt.Errorf("text must be at least %d characters", MinTextLength)
	ErrUnsupportedFile     = errors.New("unsupported file type (use PDF, DOCX, DOC or TXT)")
	ErrFileTooLarge        = errors.New("file size must be less than 16MB")
	ErrInvalidDifficulty   = errors.New("difficulty must be easy, medium or hard")
	ErrNoQuestionTypes     = errors.New("select at least one question type")
	ErrInvalidQuestionType = errors.New("question type must be factual, conceptual or analytical")
)

var (
	supportedExtensions = map[string]bool{
		".pdf":  true,
		".docx": true,
		".doc":  true,
		".txt":  true,
	}
	difficulties  = []string{"easy", "medium", "hard"}
	questionTypes = []string{"factual", "conceptual", "analytical"}
)

// DefaultQuestionTypes returns every question type the generator knows.
func DefaultQuestionTypes() []string {
	out := make([]string, len(questionTypes))
	copy(out, questionTypes)
	return out
}

// Upload is a document sent to the generator instead of pasted text.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// Request carries the content and quiz settings for one generation call.
type Request struct {
	Text          string
	File          *Upload
	NumQuestions  int
	Difficulty    string
	TimeLimit     int
	QuestionTypes []string
}

// Validate normalizes defaults in place and rejects requests the generator
// would refuse anyway.
func (r *Request) Validate() error {
	r.Text = strings.TrimSpace(r.Text)

	switch {
	case r.Text == "" && r.File == nil:
		return ErrNoContent
	case r.Text != "" && r.File != nil:
		return ErrAmbiguousContent
	case r.File != nil:
		if err := validateUpload(r.File); err != nil {
			return err
		}
	case len([]rune(r.Text)) < MinTextLength:
		return ErrTextTooShort
	}

	if r.NumQuestions <= 0 {
		r.NumQuestions = DefaultNumQuestions
	}
	if r.TimeLimit < 0 {
		r.TimeLimit = 0
	}

	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
	if r.Difficulty == "" {
		r.Difficulty = DefaultDifficulty
	}
	if !contains(difficulties, r.Difficulty) {
		return ErrInvalidDifficulty
	}

	if len(r.QuestionTypes) == 0 {
		return ErrNoQuestionTypes
	}
	normalized := make([]string, 0, len(r.QuestionTypes))
	for _, item := range r.QuestionTypes {
		item = strings.ToLower(strings.TrimSpace(item))
		if !contains(questionTypes, item) {
			return ErrInvalidQuestionType
		}
		if !contains(normalized, item) {
			normalized = append(normalized, item)
		}
	}
	r.QuestionTypes = normalized
	return nil
}

// OpenUpload opens a local document for sending. The caller closes the
// returned file once the request is done.
func OpenUpload(path string) (*Upload, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	upload := &Upload{
		Name: filepath.Base(path),
		Size: info.Size(),
		Body: file,
	}
	if err := validateUpload(upload); err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return upload, file, nil
}

func validateUpload(upload *Upload) error {
	ext := strings.ToLower(filepath.Ext(upload.Name))
	if !supportedExtensions[ext] {
		return ErrUnsupportedFile
	}
	if upload.Size > MaxUploadSize {
		return ErrFileTooLarge
	}
	if upload.Body == nil {
		return ErrNoContent
	}
	return nil
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
