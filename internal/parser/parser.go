// Package parser opens uploaded report files and exposes them as paged
// sources of prose text and detected raw tables.
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

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// PageSource is a paged view over one uploaded document. Pages are 1-based.
// Text and Tables are independent: a page may yield either, both, or neither.
type PageSource interface {
	NumPages() int
	Text(page int) (string, error)
	Tables(page int) ([]models.RawTable, error)
	Close() error
}

// Open dispatches on file extension and returns a PageSource for the file.
func Open(filePath string) (PageSource, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return openPDF(filePath)
	case ".docx":
		return openDOCX(filePath)
	case ".pptx":
		return openPPTX(filePath)
	case ".xlsx":
		return openXLSX(filePath)
	case ".ods":
		return openODS(filePath)
	case ".txt":
		return openText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

// pdfSource reads text page by page; tables are detected from the page text
// since the PDF reader has no table model.
type pdfSource struct {
	f      *os.File
	reader *pdf.Reader
}

func openPDF(filePath string) (PageSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return &pdfSource{f: f, reader: reader}, nil
}

func (s *pdfSource) NumPages() int { return s.reader.NumPage() }

func (s *pdfSource) Text(page int) (string, error) {
	p := s.reader.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d is missing", page)
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *pdfSource) Tables(page int) ([]models.RawTable, error) {
	text, err := s.Text(page)
	if err != nil {
		return nil, err
	}
	return DetectTables(text), nil
}

func (s *pdfSource) Close() error { return s.f.Close() }

// sheetSource serves spreadsheet files: each sheet is one page whose grid is
// one raw table. Prose text is not expected in spreadsheets.
type sheetSource struct {
	names  []string
	grids  map[string][][]string
	closer func() error
}

func openXLSX(filePath string) (PageSource, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	s := &sheetSource{grids: map[string][][]string{}, closer: func() error { return nil }}
	for _, sheet := range f.Sheets {
		var grid [][]string
		for _, row := range sheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			grid = append(grid, cells)
		}
		s.names = append(s.names, sheet.Name)
		s.grids[sheet.Name] = grid
	}
	return s, nil
}

func openODS(filePath string) (PageSource, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	s := &sheetSource{grids: map[string][][]string{}, closer: f.Close}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		s.names = append(s.names, name)
		s.grids[name] = rows
	}
	return s, nil
}

func (s *sheetSource) NumPages() int { return len(s.names) }

func (s *sheetSource) Text(page int) (string, error) {
	if page < 1 || page > len(s.names) {
		return "", fmt.Errorf("sheet %d out of range", page)
	}
	return "", nil
}

func (s *sheetSource) Tables(page int) ([]models.RawTable, error) {
	if page < 1 || page > len(s.names) {
		return nil, fmt.Errorf("sheet %d out of range", page)
	}
	grid := s.grids[s.names[page-1]]
	if len(grid) < 2 {
		return nil, nil
	}
	return []models.RawTable{{Header: grid[0], Rows: grid[1:]}}, nil
}

func (s *sheetSource) Close() error { return s.closer() }

// textOnlySource serves formats with prose but no page or table structure.
type textOnlySource struct {
	pages []string
}

func openDOCX(filePath string) (PageSource, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	content := r.Editable().GetContent()
	return &textOnlySource{pages: []string{stripXMLTags(content)}}, nil
}

func openText(filePath string) (PageSource, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return &textOnlySource{pages: []string{string(data)}}, nil
}

func openPPTX(filePath string) (PageSource, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []string
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
		pages = append(pages, extractTextFromXML(string(data)))
	}
	return &textOnlySource{pages: pages}, nil
}

func (s *textOnlySource) NumPages() int { return len(s.pages) }

func (s *textOnlySource) Text(page int) (string, error) {
	if page < 1 || page > len(s.pages) {
		return "", fmt.Errorf("page %d out of range", page)
	}
	return s.pages[page-1], nil
}

func (s *textOnlySource) Tables(page int) ([]models.RawTable, error) {
	text, err := s.Text(page)
	if err != nil {
		return nil, err
	}
	return DetectTables(text), nil
}

func (s *textOnlySource) Close() error { return nil }

// ToMarkdown normalizes extracted prose through goldmark so chunk content is
// consistent regardless of source format.
func ToMarkdown(text string) (string, error) {
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
	return strings.Trim(buf.String(), " \t\n\r"), nil
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

func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
