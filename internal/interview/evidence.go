package interview

import (
	"sort"
	"strings"
)

const (
	salienceDecay     = 0.85
	salienceIncrement = 1.0
	salienceEpsilon   = 0.01

	// DefaultTripletCap bounds the evidence handed to the generator.
	DefaultTripletCap = 5

	recentMentionLimit = 5
)

// Triplet is a (subject, relation, object) fact used to ground the next question.
type Triplet struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

func (t Triplet) String() string {
	return t.Subject + " --" + t.Relation + "--> " + t.Object
}

// EntityWeight is a tracked entity and its salience.
type EntityWeight struct {
	Name   string
	Weight float64
}

// EvidenceSelector tracks entity salience across turns and ranks candidate triplets.
type EvidenceSelector struct {
	weights    map[string]float64
	vocabulary []string
	recent     []string
}

func NewEvidenceSelector() *EvidenceSelector {
	return &EvidenceSelector{weights: make(map[string]float64)}
}

// Decay fades every tracked entity and forgets the ones that fall below the epsilon.
func (e *EvidenceSelector) Decay() {
	for name, w := range e.weights {
		w *= salienceDecay
		if w < salienceEpsilon {
			delete(e.weights, name)
			continue
		}
		e.weights[name] = w
	}
}

// Activate reinforces every mentioned entity.
func (e *EvidenceSelector) Activate(entities []string) {
	for _, name := range entities {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		e.weights[name] += salienceIncrement
		e.remember(name)
	}
}

func (e *EvidenceSelector) remember(name string) {
	for i, existing := range e.recent {
		if existing == name {
			e.recent = append(e.recent[:i], e.recent[i+1:]...)
			break
		}
	}
	e.recent = append(e.recent, name)
	if len(e.recent) > recentMentionLimit {
		e.recent = e.recent[len(e.recent)-recentMentionLimit:]
	}
}

// SalienceOf returns the weight of entity, 0 when it is not tracked.
func (e *EvidenceSelector) SalienceOf(entity string) float64 {
	return e.weights[entity]
}

// Tracked returns the number of tracked entities.
func (e *EvidenceSelector) Tracked() int {
	return len(e.weights)
}

// RankedTriplets orders candidates by local frequency plus salience of both ends. Ties keep
// the input order. A negative cap means DefaultTripletCap; a zero cap returns an empty list.
func (e *EvidenceSelector) RankedTriplets(candidates []Triplet, limit int) []Triplet {
	if limit < 0 {
		limit = DefaultTripletCap
	}
	if len(candidates) == 0 || limit == 0 {
		return []Triplet{}
	}

	freq := make(map[string]int)
	for _, t := range candidates {
		freq[t.Subject]++
		freq[t.Object]++
	}

	type scored struct {
		triplet Triplet
		score   float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, t := range candidates {
		ranked = append(ranked, scored{
			triplet: t,
			score: float64(freq[t.Subject]+freq[t.Object]) +
				e.weights[t.Subject] + e.weights[t.Object],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]Triplet, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.triplet)
	}
	return out
}

// SetVocabulary sets the key entities searched for by Mentioned.
func (e *EvidenceSelector) SetVocabulary(entities []string) {
	seen := make(map[string]struct{}, len(entities))
	e.vocabulary = e.vocabulary[:0]
	for _, name := range entities {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		e.vocabulary = append(e.vocabulary, name)
	}
}

// Vocabulary returns a copy of the key entities.
func (e *EvidenceSelector) Vocabulary() []string {
	return append([]string(nil), e.vocabulary...)
}

// Mentioned returns the vocabulary entries found in text, ignoring case, in vocabulary order.
func (e *EvidenceSelector) Mentioned(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	var found []string
	for _, name := range e.vocabulary {
		if strings.Contains(lower, strings.ToLower(name)) {
			found = append(found, name)
		}
	}
	return found
}

// RecentMentions returns the last distinct activated entities, oldest first.
func (e *EvidenceSelector) RecentMentions() []string {
	return append([]string(nil), e.recent...)
}

// ActiveEntities returns up to n tracked entities by descending weight. Before anything was
// mentioned it falls back to the head of the vocabulary.
func (e *EvidenceSelector) ActiveEntities(n int) []string {
	if n <= 0 {
		return nil
	}
	if len(e.weights) == 0 {
		if len(e.vocabulary) > n {
			return append([]string(nil), e.vocabulary[:n]...)
		}
		return append([]string(nil), e.vocabulary...)
	}

	entries := e.Weights()
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, 0, len(entries))
	for _, ew := range entries {
		out = append(out, ew.Name)
	}
	return out
}

// Weights returns every tracked entity ordered by weight, then name.
func (e *EvidenceSelector) Weights() []EntityWeight {
	out := make([]EntityWeight, 0, len(e.weights))
	for name, w := range e.weights {
		out = append(out, EntityWeight{Name: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Reset forgets all salience and mentions but keeps the vocabulary.
func (e *EvidenceSelector) Reset() {
	e.weights = make(map[string]float64)
	e.recent = nil
}
