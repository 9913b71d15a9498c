package version

import (
	"testing"
)

func TestLoadCurrentProfile(t *testing.T) {
	p, err := LoadCurrentProfile()
	if err != nil {
		t.Fatalf("LoadCurrentProfile() error: %v", err)
	}
	if p.Version != Current {
		t.Errorf("Version = %q, want %q", p.Version, Current)
	}
	if p.Description == "" {
		t.Error("Description is empty")
	}
	if p.MaxFrameSize != 16<<20 {
		t.Errorf("MaxFrameSize = %d, want %d", p.MaxFrameSize, 16<<20)
	}
}

func TestLoadProfile_Cached(t *testing.T) {
	a, err := LoadProfile("2.0")
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadProfile("2.0")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second load should return the cached profile")
	}
}

func TestLoadProfile_NotFound(t *testing.T) {
	if _, err := LoadProfile("99.99"); err == nil {
		t.Fatal("LoadProfile(99.99) should return error")
	}
}

func TestAvailableProfiles(t *testing.T) {
	versions, err := AvailableProfiles()
	if err != nil {
		t.Fatalf("AvailableProfiles() error: %v", err)
	}
	found := false
	for _, v := range versions {
		if v == Current {
			found = true
		}
	}
	if !found {
		t.Errorf("AvailableProfiles() = %v, want to contain %q", versions, Current)
	}
}

func TestProfileAllows(t *testing.T) {
	p, err := LoadCurrentProfile()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"", "none", "zstd", "LZ4"} {
		if !p.AllowsCompression(name) {
			t.Errorf("AllowsCompression(%q) = false", name)
		}
	}
	if p.AllowsCompression("brotli") {
		t.Error("brotli should not be allowed")
	}

	for _, name := range []string{"none", "aes-256-gcm", " chacha20-poly1305 "} {
		if !p.AllowsCipher(name) {
			t.Errorf("AllowsCipher(%q) = false", name)
		}
	}
	if p.AllowsCipher("des") {
		t.Error("des should not be allowed")
	}
}

func TestProfileCheck(t *testing.T) {
	p, err := LoadCurrentProfile()
	if err != nil {
		t.Fatal(err)
	}

	if errs := p.Check("zstd", "aes-256-gcm", 1<<20); len(errs) != 0 {
		t.Errorf("Check() = %v, want no errors", errs)
	}
	if errs := p.Check("brotli", "des", 1<<30); len(errs) != 3 {
		t.Errorf("Check() returned %d errors, want 3: %v", len(errs), errs)
	}
}
