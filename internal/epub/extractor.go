// Package epub extracts the readable text of EPUB containers.
package epub

import (
	"archive/zip"
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"epubtokens/internal/errors"

	"github.com/PuerkitoBio/goquery"
)

// Separator joins the text of consecutive content documents.
const Separator = "\n\n"

// Document is the text pulled out of one EPUB.
type Document struct {
	Title string
	Text  string
}

// Func is the narrow form of an extractor injected into the batch processor.
type Func func(path string) (Document, error)

// Extractor reads EPUB containers. The zero value has no size limit.
type Extractor struct {
	MaxFileSize int64
}

// New creates an Extractor that refuses files larger than maxFileSize
// bytes. Zero disables the limit.
func New(maxFileSize int64) *Extractor {
	return &Extractor{MaxFileSize: maxFileSize}
}

// Func returns e.Extract as a Func.
func (e *Extractor) Func() Func {
	return e.Extract
}

// Extract opens the EPUB at path and returns its content documents'
// text in spine order. Failures are *errors.ExtractionError.
func (e *Extractor) Extract(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, errors.NewExtractionError(path, errors.Unreadable, err)
	}
	if info.IsDir() {
		return Document{}, errors.NewExtractionError(path, errors.Unreadable, stderrors.New("is a directory"))
	}
	if e.MaxFileSize > 0 && info.Size() > e.MaxFileSize {
		return Document{}, errors.NewExtractionError(path, errors.Unreadable,
			errors.Newf("file too large: %d bytes (limit %d)", info.Size(), e.MaxFileSize))
	}

	f, err := os.Open(path)
	if err != nil {
		return Document{}, errors.NewExtractionError(path, errors.Unreadable, err)
	}
	defer f.Close()

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return Document{}, errors.NewExtractionError(path, errors.Malformed, err)
	}
	a := newArchive(zr, e.MaxFileSize)

	opfPath, err := a.packagePath()
	if err != nil {
		return Document{}, errors.NewExtractionError(path, readReason(err), err)
	}
	var pkg packageDoc
	if err := a.decode(opfPath, &pkg); err != nil {
		return Document{}, errors.NewExtractionError(path, readReason(err), err)
	}

	doc := Document{Title: pkg.title()}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var (
		parts []string
		found int
	)
	for _, name := range pkg.readingOrder(opfPath) {
		data, err := a.read(name)
		if stderrors.Is(err, errEntryTooLarge) {
			return Document{}, errors.NewExtractionError(path, errors.Unreadable, err)
		}
		if err != nil {
			// Dangling manifest entries are common; skip them.
			continue
		}
		found++
		text, err := TextFromMarkup(data)
		if err != nil || text == "" {
			continue
		}
		parts = append(parts, text)
	}

	// A book whose documents hold no text is a valid zero-token result;
	// a book with no readable documents at all is not.
	if found == 0 {
		return doc, errors.NewExtractionError(path, errors.Empty, stderrors.New("no content documents found"))
	}
	doc.Text = strings.Join(parts, Separator)
	return doc, nil
}

// readReason classifies a failure to read the container or package document.
func readReason(err error) errors.Reason {
	if stderrors.Is(err, errEntryTooLarge) {
		return errors.Unreadable
	}
	return errors.Malformed
}

// TextFromMarkup strips tags from an XHTML/HTML document and collapses
// whitespace.
func TextFromMarkup(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, head").Remove()

	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	// Block elements run together in Text(); pad them so words stay apart.
	sel.Find("p, div, br, li, h1, h2, h3, h4, h5, h6, tr, blockquote, section").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(sel.Text()), " "), nil
}
