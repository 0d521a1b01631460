package testutils

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Book describes an EPUB fixture.
type Book struct {
	Title    string
	Chapters []string // Body markup of each chapter, in spine order
	NoSpine  bool     // Omit the spine so readers fall back to manifest order
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// WriteEPUB writes book as an EPUB at path and returns path.
func WriteEPUB(t *testing.T, path string, book Book) string {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	writeEntry(t, zw, "META-INF/container.xml", containerXML)

	var manifest, spine strings.Builder
	for i, body := range book.Chapters {
		name := fmt.Sprintf("chapter%d.xhtml", i+1)
		fmt.Fprintf(&manifest, `<item id="ch%d" href="text/%s" media-type="application/xhtml+xml"/>`+"\n", i+1, name)
		fmt.Fprintf(&spine, `<itemref idref="ch%d"/>`+"\n", i+1)
		writeEntry(t, zw, "OEBPS/text/"+name, chapterXHTML(body))
	}
	manifest.WriteString(`<item id="css" href="style.css" media-type="text/css"/>` + "\n")
	writeEntry(t, zw, "OEBPS/style.css", "body { margin: 0 }")

	spineXML := "<spine>\n" + spine.String() + "</spine>"
	if book.NoSpine {
		spineXML = ""
	}
	opf := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>%s</dc:title>
  </metadata>
  <manifest>
%s  </manifest>
  %s
</package>`, book.Title, manifest.String(), spineXML)
	writeEntry(t, zw, "OEBPS/content.opf", opf)

	require.NoError(t, zw.Close())
	return path
}

// WriteCorruptEPUB writes bytes that are not a zip archive.
func WriteCorruptEPUB(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("this is not an epub container"), 0644))
	return path
}

// ChapterOfWords returns a paragraph of n copies of word.
func ChapterOfWords(word string, n int) string {
	return "<p>" + strings.TrimSpace(strings.Repeat(word+" ", n)) + "</p>"
}

// CreateTestFilesWithContent creates test files with specific content
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		require.NoError(t, err)
	}
}

func chapterXHTML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>chapter</title><style>p { color: red }</style></head>
<body>` + body + `</body>
</html>`
}

func writeEntry(t *testing.T, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
}
