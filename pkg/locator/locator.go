// Package locator normalizes the keys under which packages are fetched and
// cached.
//
// A locator is an http(s) URL, a local directory or file path, a zip archive
// path or a synthetic "text:" key for pasted documents. Directory-like
// locators are stored without their metadata filename and always end in "/",
// so "https://x.org/c/ro-crate-metadata.json" and "https://x.org/c" share one
// cache entry. The stripped filename is remembered for fetching.
package locator

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/matzehuels/crateview/pkg/crate"
	"github.com/matzehuels/crateview/pkg/errors"
)

// Current is the sentinel base for "the current location".
const Current = "./"

// TextPrefix marks synthetic locators for pasted documents.
const TextPrefix = "text:"

// Locator identifies a package.
type Locator struct {
	// Base is the normalized key. Directory-like bases end in "/".
	Base string `json:"base"`
	// MetadataFile is the filename stripped from the reference, if any.
	// Empty means the fetcher's default.
	MetadataFile string `json:"metadata_file,omitempty"`
}

// String returns the cache key.
func (l Locator) String() string { return l.Base }

// IsZero reports whether l is unset.
func (l Locator) IsZero() bool { return l.Base == "" }

// IsURL reports whether l is an http(s) location.
func (l Locator) IsURL() bool { return IsURL(l.Base) }

// IsText reports whether l names pasted text.
func (l Locator) IsText() bool { return strings.HasPrefix(l.Base, TextPrefix) }

// IsArchive reports whether l is a zip archive.
func (l Locator) IsArchive() bool {
	return !l.IsURL() && strings.EqualFold(path.Ext(l.Base), ".zip")
}

// IsFile reports whether l names a single metadata file rather than a
// directory-like base.
func (l Locator) IsFile() bool {
	return !l.IsText() && !strings.HasSuffix(l.Base, "/")
}

// Document returns the location of the metadata document for l, using
// defaultFile when no filename was remembered.
func (l Locator) Document(defaultFile string) string {
	if l.IsFile() || l.IsText() {
		return l.Base
	}
	file := l.MetadataFile
	if file == "" {
		file = defaultFile
	}
	return l.Base + file
}

// IsURL reports whether s is an absolute http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Split normalizes ref into a Locator. A trailing filename ending in the
// metadata suffix is stripped and remembered, a trailing "/" is ensured, and
// an empty base becomes [Current]. Text keys, zip archives and other .json
// files are kept as they are.
func Split(ref string) Locator {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, TextPrefix) {
		return Locator{Base: ref}
	}
	if IsURL(ref) {
		return splitURL(ref)
	}
	return splitPath(filepath.ToSlash(ref))
}

func splitURL(ref string) Locator {
	u, _ := url.Parse(ref)
	u.Fragment = ""
	u.RawFragment = ""

	dir, file := path.Split(u.Path)
	switch {
	case crate.IsMetadataFilename(file):
		u.Path = dir
	case opaqueFile(file), u.RawQuery != "":
		return Locator{Base: u.String()}
	default:
		file = ""
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""
	return Locator{Base: u.String(), MetadataFile: file}
}

func splitPath(ref string) Locator {
	dir, file := path.Split(ref)
	switch {
	case crate.IsMetadataFilename(file):
		ref = dir
	case opaqueFile(file):
		return Locator{Base: ref}
	default:
		file = ""
	}
	if ref == "" || ref == "." || ref == Current {
		return Locator{Base: Current, MetadataFile: file}
	}
	if !strings.HasSuffix(ref, "/") {
		ref += "/"
	}
	return Locator{Base: ref, MetadataFile: file}
}

func opaqueFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".zip" || ext == ".json" || ext == ".jsonld"
}

// Resolve turns a nested-package reference found in current into a Locator.
// Absolute URLs stand alone. Other references are resolved against current's
// base: as a URL reference when current is remote, as a path otherwise.
// Pasted text and archives have no base, so their references resolve
// against the working directory.
func Resolve(current Locator, reference string) (Locator, error) {
	reference = strings.TrimSpace(reference)
	if err := errors.ValidateReference(reference); err != nil {
		return Locator{}, err
	}

	switch {
	case IsURL(reference), strings.HasPrefix(reference, TextPrefix):
		return Split(reference), nil
	case current.IsURL():
		base, err := url.Parse(current.Base)
		if err != nil {
			return Locator{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid base %q", current.Base)
		}
		ref, err := url.Parse(reference)
		if err != nil {
			return Locator{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid reference %q", reference)
		}
		return Split(base.ResolveReference(ref).String()), nil
	}

	local := filepath.ToSlash(reference)
	if path.IsAbs(local) || filepath.IsAbs(reference) || current.IsZero() || current.IsText() || current.IsArchive() {
		return Split(keepSlash(local, path.Clean(local))), nil
	}

	dir := current.Base
	if current.IsFile() {
		dir, _ = path.Split(current.Base)
	}
	return Split(keepSlash(local, path.Join(dir, local))), nil
}

// keepSlash reapplies ref's trailing slash to a cleaned path.
func keepSlash(ref, cleaned string) string {
	if strings.HasSuffix(ref, "/") && !strings.HasSuffix(cleaned, "/") {
		return cleaned + "/"
	}
	return cleaned
}
