package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Unit is one extracted text unit: a PDF page, a slide, a sheet, or a
// paragraph-grouped block for unpaged formats. Units are split into chunks
// downstream; the parser only extracts and normalizes text.
type Unit struct {
	Text       string
	PageNumber int
}

const defaultPageNumber = 1

// SupportedExtensions lists the file extensions Parse understands.
var SupportedExtensions = []string{".pdf", ".docx", ".pptx", ".xlsx", ".ods", ".txt"}

// Supported reports whether the file extension has a parser branch.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Parse extracts text units from a document file, dispatching on extension.
func Parse(filePath string) ([]Unit, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return parsePDF(filePath)
	case ".docx":
		return parseDOCX(filePath)
	case ".pptx":
		return parsePPTX(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".ods":
		return parseODS(filePath)
	case ".txt":
		return parseText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func parsePDF(filePath string) ([]Unit, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var units []Unit
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		markdown, err := convertToMarkdown(pageText)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) == "" {
			continue
		}
		units = append(units, Unit{Text: markdown, PageNumber: i})
	}
	return units, nil
}

func parseDOCX(filePath string) ([]Unit, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc := r.Editable()
	content := doc.GetContent()
	markdown, err := convertToMarkdown(content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, nil
	}
	// DOCX has no page numbers
	return []Unit{{Text: markdown, PageNumber: defaultPageNumber}}, nil
}

func parsePPTX(filePath string) ([]Unit, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var units []Unit
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideNum++
		slideText := extractTextFromXML(string(data))
		markdown, err := convertToMarkdown(slideText)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) == "" {
			continue
		}
		units = append(units, Unit{Text: markdown, PageNumber: slideNum})
	}
	return units, nil
}

func parseXLSX(filePath string) ([]Unit, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var units []Unit
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		markdown, err := convertToMarkdown(text.String())
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) == "" {
			continue
		}
		units = append(units, Unit{Text: markdown, PageNumber: sheetNum + 1})
	}
	return units, nil
}

func parseODS(filePath string) ([]Unit, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var units []Unit
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		markdown, err := convertToMarkdown(text.String())
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(markdown) == "" {
			continue
		}
		units = append(units, Unit{Text: markdown, PageNumber: sheetNum + 1})
	}
	return units, nil
}

func parseText(filePath string) ([]Unit, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []Unit{{Text: string(data), PageNumber: defaultPageNumber}}, nil
}

func convertToMarkdown(text string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.Trim(stripTags(buf.String()), " \t\n\r"), nil
}

// stripTags removes the HTML element tags goldmark's renderer emits, keeping
// the normalized text content.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = strings.ReplaceAll(out, "&quot;", `"`)
	out = strings.ReplaceAll(out, "&#39;", "'")
	out = strings.ReplaceAll(out, "&lt;", "<")
	out = strings.ReplaceAll(out, "&gt;", ">")
	out = strings.ReplaceAll(out, "&amp;", "&")
	return out
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}
