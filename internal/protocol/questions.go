package protocol

// Question is one checklist item a dispatcher is expected to cover.
type Question struct {
	ID         string `json:"id"`
	Text       string `json:"question"`
	Category   string `json:"category"`
	Priority   int    `json:"priority"`
	Predefined bool   `json:"predefined"`
	Answered   bool   `json:"answered"`
}

// Predefined question ids. The pattern table in patterns.go is versioned
// against this set.
const (
	QLocation = "location"
	QNature   = "incident_nature"
	QPeople   = "people_involved"
	QSafety   = "caller_safety"
	QIdentity = "caller_identity"
	QTiming   = "incident_time"
)

// supplementalBasePriority places generated questions after every
// predefined one unless the capability assigns an explicit priority.
const supplementalBasePriority = 100

// predefinedQuestions seeds every new session, ordered by ascending
// priority (asked earlier first).
func predefinedQuestions() []Question {
	return []Question{
		{ID: QLocation, Text: "What is the exact location of the emergency?", Category: "location", Priority: 1, Predefined: true},
		{ID: QNature, Text: "What is the nature of the emergency?", Category: "incident", Priority: 2, Predefined: true},
		{ID: QPeople, Text: "How many people are involved or injured?", Category: "people", Priority: 3, Predefined: true},
		{ID: QSafety, Text: "Is the caller currently safe?", Category: "safety", Priority: 4, Predefined: true},
		{ID: QIdentity, Text: "What is the caller's name and contact number?", Category: "identity", Priority: 5, Predefined: true},
		{ID: QTiming, Text: "When did the incident start and is it still ongoing?", Category: "timing", Priority: 6, Predefined: true},
	}
}
