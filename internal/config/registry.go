// Package config loads the signature-registry input described in spec.md
// §6: a JSONC document listing file-type signatures and scan profiles.
// Parsing runs the document through hujson and then json.Unmarshal,
// tolerating comments and trailing commas.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/tailscale/hujson"

	"github.com/forensickit/carvescan/pkg/carver"
)

var (
	errRegistryRead    = fmt.Errorf("config: registry file read error")
	errRegistryInvalid = fmt.Errorf("config: registry file invalid")
	errProfileMissing  = fmt.Errorf("config: required profile missing")
)

// RawSignature mirrors one entry of the `signatures` object in the
// registry file: header is hex-encoded, max_size is the unscaled value.
type RawSignature struct {
	Header  string `json:"header"`
	MaxSize int    `json:"max_size"` //nolint:tagliatelle
}

// RawProfile mirrors one entry of the `profiles` object.
type RawProfile struct {
	MaxSizeFactor   float64 `json:"max_size_factor"`  //nolint:tagliatelle
	ValidateEntropy bool    `json:"validate_entropy"` //nolint:tagliatelle
	ValidateStruct  bool    `json:"validate_structure"`
	AllowRepair     *bool   `json:"allow_repair,omitempty"` //nolint:tagliatelle
}

// RegistryFile is the on-disk document shape.
type RegistryFile struct {
	Signatures map[string]RawSignature `json:"signatures"`
	Profiles   map[string]RawProfile   `json:"profiles"`
}

// RequiredProfiles are the profile names spec.md §6 requires every
// registry document to define.
var RequiredProfiles = []string{"fast", "balanced", "deep"}

// Load reads and decodes a registry file, validating hex headers and the
// presence of the required profiles. It does not apply a profile's
// max_size_factor — call Signatures for that, once a profile is chosen.
func Load(path string) (RegistryFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return RegistryFile{}, fmt.Errorf("%w: %s: %w", errRegistryRead, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return RegistryFile{}, fmt.Errorf("%w: %s: %w", errRegistryInvalid, path, err)
	}

	var doc RegistryFile

	if err := json.Unmarshal(standardized, &doc); err != nil {
		return RegistryFile{}, fmt.Errorf("%w: %s: %w", errRegistryInvalid, path, err)
	}

	for _, name := range RequiredProfiles {
		if _, ok := doc.Profiles[name]; !ok {
			return RegistryFile{}, fmt.Errorf("%w: %q in %s", errProfileMissing, name, path)
		}
	}

	for name, sig := range doc.Signatures {
		if _, err := hex.DecodeString(sig.Header); err != nil {
			return RegistryFile{}, fmt.Errorf("%w: signature %q: header is not valid hex: %w", errRegistryInvalid, name, err)
		}

		if sig.MaxSize <= 0 {
			return RegistryFile{}, fmt.Errorf("%w: signature %q: max_size must be positive", errRegistryInvalid, name)
		}
	}

	return doc, nil
}

// Profile resolves profileName to a carver.Profile. allow_repair is absent
// from §6's schema even though §4.G's algorithm references it; it defaults
// to false when the document omits it, so the three required profiles are
// strict unless a document opts one in explicitly — see DESIGN.md and
// end-to-end scenario 3 vs. 4 in §8, which only make sense under that
// default.
func (f RegistryFile) Profile(profileName string) (carver.Profile, error) {
	raw, ok := f.Profiles[profileName]
	if !ok {
		return carver.Profile{}, fmt.Errorf("%w: %q", errProfileMissing, profileName)
	}

	allowRepair := false
	if raw.AllowRepair != nil {
		allowRepair = *raw.AllowRepair
	}

	return carver.Profile{
		Name:            profileName,
		MaxSizeFactor:   raw.MaxSizeFactor,
		ValidateEntropy: raw.ValidateEntropy,
		ValidateStruct:  raw.ValidateStruct,
		AllowRepair:     allowRepair,
	}, nil
}

// Signatures builds the carver.Signature slice for profile, applying its
// max_size_factor per spec.md §6: effective max_size = max(1, floor(max_size
// * factor)).
func (f RegistryFile) Signatures(profile carver.Profile) ([]carver.Signature, error) {
	out := make([]carver.Signature, 0, len(f.Signatures))

	for name, raw := range f.Signatures {
		header, err := hex.DecodeString(raw.Header)
		if err != nil {
			return nil, fmt.Errorf("%w: signature %q: %w", errRegistryInvalid, name, err)
		}

		effective := int(math.Floor(float64(raw.MaxSize) * profile.MaxSizeFactor))
		if effective < 1 {
			effective = 1
		}

		out = append(out, carver.Signature{Name: name, Header: header, MaxSize: effective})
	}

	return out, nil
}

// DefaultRegistry is the built-in registry used when no --registry file is
// given: JPEG, PNG, MP4, and ZIP, matching spec.md §8's default end-to-end
// scenario set. Only "deep" opts into allow_repair; fast and balanced stay
// at the false default.
func DefaultRegistry() RegistryFile {
	allowRepair := true

	return RegistryFile{
		Signatures: map[string]RawSignature{
			"JPEG": {Header: "ffd8ff", MaxSize: 20 << 20},
			"PNG":  {Header: "89504e470d0a1a0a", MaxSize: 20 << 20},
			"MP4":  {Header: "66747970", MaxSize: 200 << 20}, // "ftyp" at box offset+4, see driver.go
			"ZIP":  {Header: "504b0304", MaxSize: 100 << 20},
		},
		Profiles: map[string]RawProfile{
			"fast":     {MaxSizeFactor: 0.25, ValidateEntropy: true, ValidateStruct: false},
			"balanced": {MaxSizeFactor: 1.0, ValidateEntropy: true, ValidateStruct: true},
			"deep":     {MaxSizeFactor: 2.0, ValidateEntropy: false, ValidateStruct: true, AllowRepair: &allowRepair},
		},
	}
}
