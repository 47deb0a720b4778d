package images

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/mediumdl/models"
)

// srcAttrs is the attribute preference when reading an image source: an
// eager src first, lazy-load attributes after.
var srcAttrs = []string{"src", "data-src", "data-lazy-src"}

// Src reads the image source from an <img> selection, preferring src over
// the lazy-load attributes.
func Src(s *goquery.Selection) string {
	for _, attr := range srcAttrs {
		if v, ok := s.Attr(attr); ok && v != "" {
			return v
		}
	}
	return ""
}

// Resolve turns an image src into an absolute URL. Protocol-relative URLs
// get https; everything else is resolved against base. Returns false for
// data URLs and unparsable input.
func Resolve(src string, base *url.URL) (string, bool) {
	if strings.HasPrefix(src, "data:") {
		return "", false
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	resolved, err := base.Parse(src)
	if err != nil || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

// Extractor scans located HTML for image references and assigns each a
// unique local filename. It checks the media directory on disk so a new
// run never implicitly overwrites files from an earlier one.
type Extractor struct {
	mediaDir string
}

// NewExtractor creates an Extractor writing names for mediaDir.
func NewExtractor(mediaDir string) *Extractor {
	return &Extractor{mediaDir: mediaDir}
}

// Extract returns one ImageRef per distinct non-data image URL, in
// document order, each with a unique local filename.
func (e *Extractor) Extract(rawHTML string, base *url.URL) []models.ImageRef {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var refs []models.ImageRef
	seen := make(map[string]struct{})
	taken := make(map[string]struct{})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := Src(s)
		if src == "" {
			return
		}

		absURL, ok := Resolve(src, base)
		if !ok {
			return
		}
		if _, dup := seen[absURL]; dup {
			return
		}
		seen[absURL] = struct{}{}

		name := e.uniqueName(baseName(absURL), taken)
		taken[name] = struct{}{}
		refs = append(refs, models.ImageRef{SourceURL: absURL, LocalName: name})
	})

	return refs
}

// baseName derives a filename from the URL path's last segment. When the
// segment is missing or has no extension, a deterministic name is
// synthesised from a SHA-256 checksum of the URL so reruns produce the
// same filenames on every platform.
func baseName(absURL string) string {
	name := ""
	if u, err := url.Parse(absURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" || !strings.Contains(name, ".") {
		sum := sha256.Sum256([]byte(absURL))
		return fmt.Sprintf("image_%s.jpg", hex.EncodeToString(sum[:])[:8])
	}
	return name
}

// uniqueName appends an incrementing counter before the extension until
// the name collides with neither a name assigned this run nor a file
// already present in the media directory.
func (e *Extractor) uniqueName(name string, taken map[string]struct{}) string {
	candidate := name
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for counter := 1; ; counter++ {
		if _, used := taken[candidate]; !used && !e.fileExists(candidate) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, counter, ext)
	}
}

func (e *Extractor) fileExists(name string) bool {
	_, err := os.Stat(filepath.Join(e.mediaDir, name))
	return err == nil
}
