package portfolio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"go.uber.org/zap"
)

// UnsupportedFormatError reports a portfolio file format the extractor cannot
// handle.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported portfolio format %q", e.Format)
}

// Extractor turns a portfolio document into the plain-text summary the
// interview runs against. PDF is parsed, plain-text formats are read as is.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract reads the file and extracts its text, deriving the format from the
// file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading portfolio %q: %w", path, err)
	}

	text, err := e.ExtractBytes(ctx, data, filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("extracting portfolio %q: %w", path, err)
	}

	e.logger.Debug("portfolio extracted",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.Int("characters", utf8.RuneCountInString(text)),
	)

	return text, nil
}

// ExtractBytes extracts text from raw file content. The format hint is a file
// extension, with or without the leading dot.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, formatHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(formatHint), "."))

	var (
		text string
		err  error
	)

	switch format {
	case "txt", "text", "md", "markdown":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s content is not valid utf-8", format)
		}
		text = string(data)
	case "pdf":
		text, err = extractPDF(data)
		if err != nil {
			return "", err
		}
	default:
		return "", &UnsupportedFormatError{Format: format}
	}

	if text = strings.TrimSpace(text); text == "" {
		return "", fmt.Errorf("document contains no extractable text")
	}

	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}
