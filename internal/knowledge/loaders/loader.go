package loaders

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// ExtractText detects the content type of an uploaded file and extracts its
// plain text. Supported inputs are UTF-8 text (including markdown) and PDF.
func ExtractText(data []byte) (text string, contentType string, err error) {
	mtype := mimetype.Detect(data)

	switch {
	case mtype.Is("application/pdf"):
		text, err = extractPDFText(data)
		if err != nil {
			return "", "", err
		}
		return text, mtype.String(), nil

	case strings.HasPrefix(mtype.String(), "text/"):
		if !utf8.Valid(data) {
			return "", "", fmt.Errorf("text file is not valid UTF-8")
		}
		return string(data), mtype.String(), nil

	default:
		return "", "", fmt.Errorf("unsupported content type: %s", mtype.String())
	}
}
