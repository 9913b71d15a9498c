package version

import (
	"embed"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// Profile describes what a protocol version permits on the wire.
type Profile struct {
	Version      string   `yaml:"version"`
	Description  string   `yaml:"description"`
	MaxFrameSize uint32   `yaml:"max_frame_size"`
	Compression  []string `yaml:"compression"`
	Ciphers      []string `yaml:"ciphers"`
}

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*Profile)
)

// LoadProfile loads the profile for a version string (e.g. "2.0").
func LoadProfile(ver string) (*Profile, error) {
	cacheMu.RLock()
	if p, ok := cache[ver]; ok {
		cacheMu.RUnlock()
		return p, nil
	}
	cacheMu.RUnlock()

	data, err := profileFS.ReadFile("profiles/" + ver + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("protocol version %q not supported: %w", ver, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", ver, err)
	}

	cacheMu.Lock()
	cache[ver] = &p
	cacheMu.Unlock()

	return &p, nil
}

// LoadCurrentProfile loads the profile for Current.
func LoadCurrentProfile() (*Profile, error) {
	return LoadProfile(Current)
}

// AvailableProfiles returns the version strings of all embedded profiles.
func AvailableProfiles() ([]string, error) {
	entries, err := profileFS.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("reading profiles directory: %w", err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			versions = append(versions, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// AllowsCompression reports whether the named codec may be used.
// The empty name is treated as "none".
func (p *Profile) AllowsCompression(name string) bool {
	return slices.Contains(p.Compression, normalize(name))
}

// AllowsCipher reports whether the named cipher may be used.
func (p *Profile) AllowsCipher(name string) bool {
	return slices.Contains(p.Ciphers, normalize(name))
}

// Check returns one error for every setting the profile does not allow.
func (p *Profile) Check(compression, cipher string, maxFrameSize uint32) []error {
	var errs []error
	if !p.AllowsCompression(compression) {
		errs = append(errs, fmt.Errorf("compression %q not allowed by protocol %s (allowed: %s)",
			compression, p.Version, strings.Join(p.Compression, ", ")))
	}
	if !p.AllowsCipher(cipher) {
		errs = append(errs, fmt.Errorf("cipher %q not allowed by protocol %s (allowed: %s)",
			cipher, p.Version, strings.Join(p.Ciphers, ", ")))
	}
	if p.MaxFrameSize != 0 && maxFrameSize > p.MaxFrameSize {
		errs = append(errs, fmt.Errorf("max frame size %d exceeds protocol %s limit %d",
			maxFrameSize, p.Version, p.MaxFrameSize))
	}
	return errs
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "none"
	}
	return name
}
