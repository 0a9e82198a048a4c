package carver

// Matcher finds every occurrence of every registered header in a single
// pass over a byte slice — spec.md §4.C. It is built once from a Registry
// and is stateless and safe for concurrent use thereafter (the scan loop
// itself is single-threaded, but nothing here prevents reuse).
//
// The implementation is Aho–Corasick over the 256-symbol byte alphabet,
// represented as flat arrays indexed by integer state — no node-to-node
// pointers, per spec.md §9's note on representing cyclic failure-link
// structures.
type Matcher struct {
	goTo    [][256]int32 // goTo[state][byte] -> next state; complete transition function
	outputs [][]int32    // outputs[state] -> indices into sigs ending at this state
	sigs    []Signature
}

const acRoot int32 = 0

// NewMatcher builds the automaton from every signature in reg.
func NewMatcher(reg *Registry) *Matcher {
	sigs := reg.Signatures()

	m := &Matcher{sigs: sigs}
	m.build(sigs)

	return m
}

func (m *Matcher) build(sigs []Signature) {
	// Phase 1: build the trie. goTo entries start as -1 ("no explicit
	// trie edge"); they get completed into the full transition function
	// in phase 2.
	m.newState()

	for sigIdx, sig := range sigs {
		state := acRoot

		for _, b := range sig.Header {
			next := m.goTo[state][b]
			if next == -1 {
				next = m.newState()
				m.goTo[state][b] = next
			}

			state = next
		}

		m.outputs[state] = append(m.outputs[state], int32(sigIdx))
	}

	// Phase 2: BFS to compute fail links and complete the goto function,
	// merging dictionary-suffix outputs so runtime scanning never has to
	// walk fail links itself.
	fail := make([]int32, len(m.goTo))

	queue := make([]int32, 0, len(m.goTo))

	for b := 0; b < 256; b++ {
		v := m.goTo[acRoot][b]
		if v == -1 {
			m.goTo[acRoot][b] = acRoot
			continue
		}

		fail[v] = acRoot
		queue = append(queue, v)
	}

	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		m.outputs[u] = append(m.outputs[u], m.outputs[fail[u]]...)

		for b := 0; b < 256; b++ {
			v := m.goTo[u][b]
			if v == -1 {
				m.goTo[u][b] = m.goTo[fail[u]][b]
				continue
			}

			fail[v] = m.goTo[fail[u]][b]
			queue = append(queue, v)
		}
	}
}

func (m *Matcher) newState() int32 {
	idx := int32(len(m.goTo))

	var edges [256]int32
	for i := range edges {
		edges[i] = -1
	}

	m.goTo = append(m.goTo, edges)
	m.outputs = append(m.outputs, nil)

	return idx
}

// FindAll reports every header occurrence in data, in non-decreasing
// end-position order (spec.md §4.C guarantee). It does not mutate data.
func (m *Matcher) FindAll(data []byte) []RawMatch {
	var matches []RawMatch

	state := acRoot

	for i, b := range data {
		state = m.goTo[state][b]

		for _, sigIdx := range m.outputs[state] {
			sig := m.sigs[sigIdx]
			start := i - len(sig.Header) + 1

			if start < 0 {
				continue
			}

			matches = append(matches, RawMatch{
				TypeName:          sig.Name,
				OffsetWithinBlock: start,
				Signature:         sig,
			})
		}
	}

	return matches
}
