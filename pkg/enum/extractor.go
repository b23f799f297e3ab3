package enum

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractedContent is text pulled out of one member of a document or archive.
type ExtractedContent struct {
	Name    string // member path, e.g. "word/document.xml"
	Content []byte
}

// ExtractLimits bounds the work done on a single file.
type ExtractLimits struct {
	MaxMembers int   // members extracted per file (0 = 1000)
	MaxSize    int64 // uncompressed bytes read per member (0 = 10MB)
}

func (l ExtractLimits) withDefaults() ExtractLimits {
	if l.MaxMembers <= 0 {
		l.MaxMembers = 1000
	}
	if l.MaxSize <= 0 {
		l.MaxSize = 10 << 20
	}
	return l
}

var extractable = map[string]bool{
	"xlsx": true,
	"docx": true,
	"pptx": true,
	"pdf":  true,
	"zip":  true,
}

// IsExtractable reports whether ext (without the dot) is supported.
func IsExtractable(ext string) bool {
	return extractable[ext]
}

func extension(p string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
}

// ExtractText extracts text from a supported document or archive.
func ExtractText(p string, content []byte, limits ExtractLimits) ([]ExtractedContent, error) {
	limits = limits.withDefaults()

	switch ext := extension(p); ext {
	case "xlsx":
		return extractZipMembers(content, limits, func(name string) bool {
			return name == "xl/sharedStrings.xml" ||
				(strings.HasPrefix(name, "xl/worksheets/sheet") && strings.HasSuffix(name, ".xml"))
		}, extractXMLText)
	case "docx":
		return extractZipMembers(content, limits, func(name string) bool {
			return name == "word/document.xml"
		}, extractXMLText)
	case "pptx":
		return extractZipMembers(content, limits, func(name string) bool {
			return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
		}, extractXMLText)
	case "zip":
		return extractZipMembers(content, limits, func(name string) bool {
			return !strings.HasSuffix(name, "/")
		}, plainText)
	case "pdf":
		return extractPDF(content)
	default:
		return nil, fmt.Errorf("unsupported file type: %q", ext)
	}
}

// extractZipMembers converts the selected members of a zip container with
// convert, in member-name order. Binary members of plain archives are skipped.
func extractZipMembers(content []byte, limits ExtractLimits, selected func(string) bool, convert func([]byte) []byte) ([]ExtractedContent, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip container: %w", err)
	}

	files := append([]*zip.File(nil), zr.File...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var results []ExtractedContent
	for _, f := range files {
		if len(results) >= limits.MaxMembers {
			break
		}
		if !selected(f.Name) {
			continue
		}

		data, err := readMember(f, limits.MaxSize)
		if err != nil {
			continue
		}
		if text := convert(data); len(text) > 0 {
			results = append(results, ExtractedContent{Name: path.Clean(f.Name), Content: text})
		}
	}
	return results, nil
}

func readMember(f *zip.File, maxSize int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxSize))
}

func plainText(data []byte) []byte {
	if isBinary(data) {
		return nil
	}
	return data
}

// extractPDF concatenates the plain text of every page.
func extractPDF(content []byte) ([]ExtractedContent, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var text strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteByte('\n')
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, nil
	}
	return []ExtractedContent{{Name: "content", Content: []byte(text.String())}}, nil
}

// extractXMLText joins the non-blank character data of an XML document with
// single spaces.
func extractXMLText(data []byte) []byte {
	var text strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		cd, ok := token.(xml.CharData)
		if !ok {
			continue
		}
		cleaned := cleanText(string(cd))
		if cleaned == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(cleaned)
	}
	return []byte(text.String())
}

// cleanText collapses whitespace runs and drops non-printable runes.
func cleanText(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPrint(r):
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
