package carver

// Registry is the immutable table of recognized signatures. It is built
// once from data (see internal/config) and shared read-only across the
// scan — see spec.md §4.B.
type Registry struct {
	signatures    map[string]Signature
	order         []string // preserves insertion order for deterministic iteration
	maxHeaderSize int
}

// NewRegistry validates and freezes a set of signatures. Signature.Name
// must be unique; an empty set is permitted (the matcher then reports no
// hits, which is a valid — if useless — configuration).
func NewRegistry(signatures []Signature) (*Registry, error) {
	reg := &Registry{
		signatures: make(map[string]Signature, len(signatures)),
		order:      make([]string, 0, len(signatures)),
	}

	for _, sig := range signatures {
		if err := sig.validate(); err != nil {
			return nil, err
		}

		if _, dup := reg.signatures[sig.Name]; dup {
			return nil, dupSignatureErr(sig.Name)
		}

		reg.signatures[sig.Name] = sig
		reg.order = append(reg.order, sig.Name)

		if len(sig.Header) > reg.maxHeaderSize {
			reg.maxHeaderSize = len(sig.Header)
		}
	}

	return reg, nil
}

// MaxHeaderSize returns max(len(header)) across all registered signatures.
// The driver uses this to size the inter-block overlap.
func (r *Registry) MaxHeaderSize() int { return r.maxHeaderSize }

// Lookup returns the signature registered under name.
func (r *Registry) Lookup(name string) (Signature, bool) {
	sig, ok := r.signatures[name]
	return sig, ok
}

// Signatures returns all registered signatures in registration order.
func (r *Registry) Signatures() []Signature {
	out := make([]Signature, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.signatures[name])
	}

	return out
}

func dupSignatureErr(name string) error {
	return &duplicateSignatureError{name: name}
}

type duplicateSignatureError struct{ name string }

func (e *duplicateSignatureError) Error() string {
	return "carver: duplicate signature name " + e.name
}

func (e *duplicateSignatureError) Unwrap() error { return ErrMatcherBuild }
