// Package extract turns uploaded or downloaded policy documents into plain text whose
// paragraph breaks survive as blank lines.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// runExtensions are the formats accepted by the question-answering upload surface.
var runExtensions = map[string]bool{".pdf": true, ".docx": true, ".eml": true}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on the given extension
// (with or without the leading dot, any case). Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch NormalizeExt(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".eml":
		return extractEML(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}

// NormalizeExt lowercases ext and ensures a leading dot. Empty stays empty.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// SupportedForRun reports whether ext is one of the document types the run endpoint accepts:
// PDF, DOCX and EML.
func SupportedForRun(ext string) bool {
	return runExtensions[NormalizeExt(ext)]
}
