package activity

import "time"

// Summary is the result of summarizing one wallet over one window.
type Summary struct {
	Wallet      string  `json:"wallet"`
	WindowHours float64 `json:"window_hours"`
	// Considered is the number of transactions inside the window.
	Considered int    `json:"considered"`
	Events     Events `json:"events"`
	Total      int    `json:"total"`
	Shown      int    `json:"shown"`
	Text       string `json:"text"`
}

// Summarizer runs the filter, classify and render steps in a single pass.
// It holds no state between calls.
type Summarizer struct {
	Venues   VenueSet
	Renderer *Renderer
	Now      func() time.Time
}

// NewSummarizer returns a Summarizer with the default venues and renderer.
func NewSummarizer() *Summarizer {
	return &Summarizer{
		Venues:   DefaultVenues,
		Renderer: NewRenderer(),
		Now:      time.Now,
	}
}

// Summarize reports the activity of wallet in txns over the last hours.
func (s *Summarizer) Summarize(txns []RawTransaction, wallet string, hours float64) *Summary {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	renderer := s.Renderer
	if renderer == nil {
		renderer = NewRenderer()
	}

	recent := FilterByWindow(txns, hours, now())
	events := NewClassifier(wallet, s.Venues).ClassifyAll(recent)

	if events == nil {
		events = []Event{}
	}
	shown := min(len(events), renderer.maxEvents())

	return &Summary{
		Wallet:      wallet,
		WindowHours: hours,
		Considered:  len(recent),
		Events:      events,
		Total:       len(events),
		Shown:       shown,
		Text:        renderer.Render(events, wallet, hours),
	}
}
