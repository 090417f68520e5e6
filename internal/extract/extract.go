// Package extract pulls plain text out of uploaded documents for prompt
// preparation. Images are not handled here; they go to the multimodal model.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported reports a payload this extractor cannot read.
var ErrUnsupported = errors.New("unsupported document type for text extraction")

const mimePDF = "application/pdf"

// Text extracts plain text from an in-memory payload.
// PDF parsing uses github.com/ledongthuc/pdf.
func Text(ctx context.Context, data []byte, contentType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case isPDF(contentType, fileName, data):
		text, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("extract text file=%s mime=%s: %w", fileName, contentType, err)
		}
		return text, nil
	case strings.HasPrefix(strings.ToLower(contentType), "text/"):
		return string(data), nil
	default:
		return "", fmt.Errorf("extract text file=%s mime=%s: %w", fileName, contentType, ErrUnsupported)
	}
}

func isPDF(contentType, fileName string, data []byte) bool {
	if strings.EqualFold(strings.TrimSpace(contentType), mimePDF) {
		return true
	}
	if strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not lose the rest of the document.
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return text, nil
}
