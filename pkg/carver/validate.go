package carver

// structuralValidator is a pure function validating one container type. All
// arms accept a tolerant flag: true accepts truncated-but-plausible blobs
// so the repairer gets a chance to recover them; false is the strict mode.
// The driver calls the validator once per candidate, in tolerant mode when
// the profile allows repair and in strict mode otherwise. See spec.md §4.D and §9
// ("a variant/tagged-union dispatch table keyed by type name").
type structuralValidator func(blob []byte, tolerant bool) bool

var structuralValidators = map[string]structuralValidator{
	"JPEG": validateJPEG,
	"PNG":  validatePNG,
	"MP4":  validateMP4,
	"ZIP":  validateZIP,
	"DOCX": validateZIP,
}

// ValidateStructure dispatches to the structural validator registered for
// typeName. Unknown types are accepted unconditionally (spec.md §4.D).
func ValidateStructure(blob []byte, typeName string, tolerant bool) bool {
	v, ok := structuralValidators[typeName]
	if !ok {
		return true
	}

	return v(blob, tolerant)
}
