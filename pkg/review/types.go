package review

// Request is the draft evaluated by all review dimensions. It is immutable
// once dispatched to the executor.
type Request struct {
	Title string   `json:"title" yaml:"title"`
	Body  string   `json:"body" yaml:"body"`
	Topic string   `json:"topic,omitempty" yaml:"topic,omitempty"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DimensionResult is one evaluation axis's verdict on a Request. A dimension
// that failed after exhausting its fallback chain carries Err and no score;
// consumers must treat that distinctly from a low score.
type DimensionResult struct {
	Dimension   string   `json:"dimension"`
	Score       float64  `json:"score"`
	Strengths   []string `json:"strengths,omitempty"`
	Weaknesses  []string `json:"weaknesses,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Confidence  float64  `json:"confidence"`
	Err         error    `json:"-"`
}

// Valid reports whether the dimension produced a usable score.
func (r DimensionResult) Valid() bool {
	return r.Err == nil
}

// Built-in dimension names.
const (
	DimensionQuality    = "quality"
	DimensionCompliance = "compliance"
	DimensionEngagement = "engagement"
)
