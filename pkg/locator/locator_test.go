package locator

import (
	"testing"

	"github.com/matzehuels/crateview/pkg/errors"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		ref  string
		want Locator
	}{
		{"https://x.org/c/ro-crate-metadata.json", Locator{Base: "https://x.org/c/", MetadataFile: "ro-crate-metadata.json"}},
		{"https://x.org/c/", Locator{Base: "https://x.org/c/"}},
		{"https://x.org/c", Locator{Base: "https://x.org/c/"}},
		{"https://x.org", Locator{Base: "https://x.org/"}},
		{"https://x.org/c/my-ro-crate-metadata.json", Locator{Base: "https://x.org/c/", MetadataFile: "my-ro-crate-metadata.json"}},
		{"https://x.org/c/ro-crate-metadata.json#frag", Locator{Base: "https://x.org/c/", MetadataFile: "ro-crate-metadata.json"}},
		{"https://x.org/c/bundle.zip", Locator{Base: "https://x.org/c/bundle.zip"}},
		{"https://x.org/api?id=5", Locator{Base: "https://x.org/api?id=5"}},
		{"data/crate/ro-crate-metadata.json", Locator{Base: "data/crate/", MetadataFile: "ro-crate-metadata.json"}},
		{"data/crate", Locator{Base: "data/crate/"}},
		{"/abs/crate/", Locator{Base: "/abs/crate/"}},
		{"ro-crate-metadata.json", Locator{Base: Current, MetadataFile: "ro-crate-metadata.json"}},
		{"", Locator{Base: Current}},
		{".", Locator{Base: Current}},
		{"./", Locator{Base: Current}},
		{"bundle.zip", Locator{Base: "bundle.zip"}},
		{"exported.json", Locator{Base: "exported.json"}},
		{"text:abc123", Locator{Base: "text:abc123"}},
		{"  data/crate  ", Locator{Base: "data/crate/"}},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := Split(tt.ref); got != tt.want {
				t.Errorf("Split(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestSplitEquivalentForms(t *testing.T) {
	a := Split("https://x.org/c/ro-crate-metadata.json")
	b := Split("https://x.org/c")
	if a.String() != b.String() {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}

func TestResolve(t *testing.T) {
	remote := Split("https://x.org/crates/root/")
	local := Split("data/root")
	file := Split("exports/root.json")

	tests := []struct {
		name    string
		current Locator
		ref     string
		want    Locator
	}{
		{"absolute url", local, "https://y.org/c/ro-crate-metadata.json", Locator{Base: "https://y.org/c/", MetadataFile: "ro-crate-metadata.json"}},
		{"relative to url", remote, "sub/ro-crate-metadata.json", Locator{Base: "https://x.org/crates/root/sub/", MetadataFile: "ro-crate-metadata.json"}},
		{"bare name against url", remote, "sub", Locator{Base: "https://x.org/crates/root/sub/"}},
		{"parent against url", remote, "../other/", Locator{Base: "https://x.org/crates/other/"}},
		{"root-relative url", remote, "/c/", Locator{Base: "https://x.org/c/"}},
		{"relative to dir", local, "sub/ro-crate-metadata.json", Locator{Base: "data/root/sub/", MetadataFile: "ro-crate-metadata.json"}},
		{"bare name against dir", local, "sub", Locator{Base: "data/root/sub/"}},
		{"parent against dir", local, "../sibling/", Locator{Base: "data/sibling/"}},
		{"relative to file", file, "nested/", Locator{Base: "exports/nested/"}},
		{"absolute path", local, "/srv/crate/", Locator{Base: "/srv/crate/"}},
		{"metadata in same dir", Split("./"), "ro-crate-metadata.json", Locator{Base: Current, MetadataFile: "ro-crate-metadata.json"}},
		{"no current", Locator{}, "sub", Locator{Base: "sub/"}},
		{"from text", Split("text:abc"), "sub", Locator{Base: "sub/"}},
		{"zip in dir", local, "bundle.zip", Locator{Base: "data/root/bundle.zip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.current, tt.ref)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %+v, want %+v", tt.current, tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	for _, ref := range []string{"", "   ", "sub\x00dir"} {
		if _, err := Resolve(Split("data/"), ref); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Resolve(%q) error = %v, want INVALID_INPUT", ref, err)
		}
	}
}

func TestDocument(t *testing.T) {
	tests := []struct {
		loc  Locator
		want string
	}{
		{Split("https://x.org/c/"), "https://x.org/c/ro-crate-metadata.json"},
		{Split("https://x.org/c/custom-ro-crate-metadata.json"), "https://x.org/c/custom-ro-crate-metadata.json"},
		{Split("data/crate"), "data/crate/ro-crate-metadata.json"},
		{Split("bundle.zip"), "bundle.zip"},
		{Split("text:abc"), "text:abc"},
	}
	for _, tt := range tests {
		if got := tt.loc.Document("ro-crate-metadata.json"); got != tt.want {
			t.Errorf("%+v.Document() = %q, want %q", tt.loc, got, tt.want)
		}
	}
}

func TestKinds(t *testing.T) {
	if !Split("https://x.org/").IsURL() || Split("data/").IsURL() {
		t.Error("IsURL")
	}
	if !Split("a/b.ZIP").IsArchive() || Split("a/").IsArchive() {
		t.Error("IsArchive")
	}
	if !Split("text:1").IsText() {
		t.Error("IsText")
	}
	if !Split("x.json").IsFile() || Split("x/").IsFile() {
		t.Error("IsFile")
	}
	if !(Locator{}).IsZero() {
		t.Error("IsZero")
	}
}
