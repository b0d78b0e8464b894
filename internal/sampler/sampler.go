// Package sampler implements the honeypot's malware-capture path: detecting
// wget/curl invocations in attacker-issued commands, invoking an external
// retrieval helper, and storing the result under an MD5-suffixed name.
package sampler

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
)

// urlPattern matches a wget/curl invocation and captures the URL argument,
// per spec.md's "(?i)(wget|curl).+(http[^ >;\"']+)".
var urlPattern = regexp.MustCompile(`(?i)(wget|curl).+(http[^ >;"']+)`)

// ExtractURL returns the URL a wget/curl command line is fetching, if any.
func ExtractURL(line string) (string, bool) {
	m := urlPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// Retriever fetches a URL to a local file, best-effort. It must never
// panic or block indefinitely; ok=false means "could not retrieve",
// handled silently by Sampler.
type Retriever interface {
	Retrieve(rawURL string) (localPath string, ok bool)
}

// Sampler captures files referenced by attacker commands into dir.
type Sampler struct {
	dir       string
	retriever Retriever
}

// New creates a Sampler that stores captures under dir using retriever.
func New(dir string, retriever Retriever) *Sampler {
	return &Sampler{dir: dir, retriever: retriever}
}

// Capture scans line for a wget/curl URL, retrieves it, and stores it under
// dir as "<urlbasename>_<md5hex>". It returns the stored path on success.
// Any failure (no URL, retrieval failure, read/write failure) yields
// ok=false with no error returned to the caller: retrieval failures are
// silent per spec.md §4.E.3d.
func (s *Sampler) Capture(line string) (storedPath string, ok bool) {
	rawURL, found := ExtractURL(line)
	if !found {
		return "", false
	}

	fetched, fetchOK := s.retriever.Retrieve(rawURL)
	if !fetchOK || fetched == "" {
		return "", false
	}

	data, err := os.ReadFile(fetched)
	if err != nil {
		return "", false
	}

	sum := md5.Sum(data)
	name := fmt.Sprintf("%s_%s", urlBaseName(rawURL), hex.EncodeToString(sum[:]))
	dest := filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", false
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", false
	}
	return dest, true
}

// urlBaseName derives a filesystem-safe base name from a URL's path
// component, falling back to a fixed name for URLs with no path segment.
func urlBaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "download"
	}
	return base
}
