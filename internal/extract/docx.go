package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// wordDocumentPath is the main document body inside a .docx package.
const wordDocumentPath = "word/document.xml"

// extractDOCX extracts text from .docx bytes. A DOCX file is a ZIP
// containing word/document.xml; the visible text lives in <w:t> elements
// and paragraphs end at </w:p>.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: docx is not a zip archive: %v", ErrCorruptInput, err)
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == wordDocumentPath {
			body, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("%w: open %s: %v", ErrCorruptInput, wordDocumentPath, err)
			}
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: %s missing", ErrCorruptInput, wordDocumentPath)
	}
	defer body.Close()

	var b strings.Builder
	dec := xml.NewDecoder(body)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: parse %s: %v", ErrCorruptInput, wordDocumentPath, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
