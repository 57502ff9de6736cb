package models

// Source points at one retrieved document excerpt backing an answer.
type Source struct {
	DocID      string  `json:"doc_id"`
	Excerpt    string  `json:"excerpt"`
	Similarity float64 `json:"similarity"`
}

// RetrievedContext is the grounding the retrieval subsystem returned for
// a query. May be empty; the Generator then answers with an explicit
// uncertainty acknowledgement.
type RetrievedContext struct {
	Text    string   `json:"context"`
	Sources []Source `json:"sources"`
}

// Empty reports whether no usable grounding was retrieved.
func (c *RetrievedContext) Empty() bool {
	return c == nil || (c.Text == "" && len(c.Sources) == 0)
}

// MaxSimilarity returns the highest source similarity, or 0 when empty.
// Used to derive Generator confidence when the model does not self-report.
func (c *RetrievedContext) MaxSimilarity() float64 {
	if c == nil {
		return 0
	}
	best := 0.0
	for _, s := range c.Sources {
		if s.Similarity > best {
			best = s.Similarity
		}
	}
	return best
}
