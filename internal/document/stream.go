// Package document wraps the uploaded document payload shared by all steps
// of a validation run.
package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Stream is the one resource shared across pipeline steps within a run. Each
// step expects to read the document from the start, so the orchestrator calls
// Reset after every step that consumed it.
type Stream struct {
	FileName    string
	ContentType string
	reader      *bytes.Reader
	data        []byte
}

// NewStream copies the payload into an in-memory stream.
func NewStream(fileName, contentType string, data []byte) *Stream {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Stream{
		FileName:    fileName,
		ContentType: contentType,
		reader:      bytes.NewReader(buf),
		data:        buf,
	}
}

// FromReader drains r into a new stream.
func FromReader(fileName, contentType string, r io.Reader) (*Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", fileName, err)
	}
	return NewStream(fileName, contentType, data), nil
}

// Read implements io.Reader over the payload.
func (s *Stream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Reset rewinds the read position to the start of the document.
func (s *Stream) Reset() {
	s.reader.Seek(0, io.SeekStart)
}

// Bytes returns the full payload regardless of read position.
func (s *Stream) Bytes() []byte {
	return s.data
}

// Size returns the payload length in bytes.
func (s *Stream) Size() int64 {
	return int64(len(s.data))
}

// IsImage reports whether the payload should go to the multimodal model.
func (s *Stream) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(s.ContentType), "image/")
}

// IsPDF reports whether the payload is a PDF document.
func (s *Stream) IsPDF() bool {
	return strings.EqualFold(s.ContentType, "application/pdf") ||
		strings.HasSuffix(strings.ToLower(s.FileName), ".pdf")
}
