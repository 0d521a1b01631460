package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

const containerPath = "META-INF/container.xml"

type containerDoc struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

type packageDoc struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Titles []string `xml:"title"`
	} `xml:"metadata"`
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type manifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

func isContentDocument(mediaType string) bool {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "application/xhtml+xml", "text/html":
		return true
	}
	return false
}

// errEntryTooLarge is returned when an entry expands past the limit.
var errEntryTooLarge = errors.New("entry too large")

// archive indexes the entries of an open EPUB zip by name. Entries larger
// than limit uncompressed bytes are refused; zero disables the limit.
type archive struct {
	files map[string]*zip.File
	limit int64
}

func newArchive(r *zip.Reader, limit int64) *archive {
	a := &archive{files: make(map[string]*zip.File, len(r.File)), limit: limit}
	for _, f := range r.File {
		a.files[f.Name] = f
	}
	return a
}

func (a *archive) read(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("entry not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if a.limit <= 0 {
		return io.ReadAll(rc)
	}
	data, err := io.ReadAll(io.LimitReader(rc, a.limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > a.limit {
		return nil, fmt.Errorf("%w: %s expands past %d bytes", errEntryTooLarge, name, a.limit)
	}
	return data, nil
}

func (a *archive) decode(name string, v interface{}) error {
	data, err := a.read(name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// packagePath returns the OPF path declared by container.xml.
func (a *archive) packagePath() (string, error) {
	var c containerDoc
	if err := a.decode(containerPath, &c); err != nil {
		return "", err
	}
	for _, rf := range c.RootFiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}
	return "", fmt.Errorf("no rootfile in %s", containerPath)
}

// readingOrder resolves the spine into archive entry names. Packages
// without a spine fall back to manifest order.
func (p *packageDoc) readingOrder(opfPath string) []string {
	base := path.Dir(opfPath)
	byID := make(map[string]manifestItem, len(p.Manifest.Items))
	for _, item := range p.Manifest.Items {
		byID[item.ID] = item
	}

	var items []manifestItem
	if len(p.Spine.ItemRefs) > 0 {
		for _, ref := range p.Spine.ItemRefs {
			if item, ok := byID[ref.IDRef]; ok {
				items = append(items, item)
			}
		}
	} else {
		items = p.Manifest.Items
	}

	var names []string
	for _, item := range items {
		if !isContentDocument(item.MediaType) {
			continue
		}
		names = append(names, resolveHref(base, item.Href))
	}
	return names
}

func resolveHref(base, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	href = strings.ReplaceAll(href, "\\", "/")
	if base == "." || base == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(base, href))
}

func (p *packageDoc) title() string {
	for _, t := range p.Metadata.Titles {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return ""
}
