package events

import "time"

const TypeResearchCompleted = "research.completed"

// ResearchCompleted describes one finished pipeline run.
type ResearchCompleted struct {
	ThreadID        string
	ProcessingState string
	WebSources      int
	ImageSources    int
	VectorSources   int
	Repaired        bool
	OccurredAt      time.Time
}

func (e ResearchCompleted) EventType() string    { return TypeResearchCompleted }
func (e ResearchCompleted) Timestamp() time.Time { return e.OccurredAt }

func (e ResearchCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"thread_id":        e.ThreadID,
		"processing_state": e.ProcessingState,
		"web_sources":      e.WebSources,
		"image_sources":    e.ImageSources,
		"vector_sources":   e.VectorSources,
		"repaired":         e.Repaired,
	}
}

// ResearchCompletedFrom reads a decoded event back into its typed form.
// Counts arrive as float64 after a JSON round trip.
func ResearchCompletedFrom(e Event) (ResearchCompleted, bool) {
	if e.EventType() != TypeResearchCompleted {
		return ResearchCompleted{}, false
	}
	p := e.Payload()
	str := func(k string) string {
		s, _ := p[k].(string)
		return s
	}
	num := func(k string) int {
		switch v := p[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
		return 0
	}
	repaired, _ := p["repaired"].(bool)
	return ResearchCompleted{
		ThreadID:        str("thread_id"),
		ProcessingState: str("processing_state"),
		WebSources:      num("web_sources"),
		ImageSources:    num("image_sources"),
		VectorSources:   num("vector_sources"),
		Repaired:        repaired,
		OccurredAt:      e.Timestamp(),
	}, true
}
