package insight

// Person is one individual mentioned by the caller.
type Person struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Incident is the fixed-field classification of what is happening.
// Fields overwrite only when a new non-empty value arrives.
type Incident struct {
	Type        string `json:"incident_type,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Source      string `json:"source,omitempty"`
	State       string `json:"current_state,omitempty"`
}

// TimeInfo captures the incident timeline.
type TimeInfo struct {
	Duration  string `json:"duration,omitempty"`
	StartTime string `json:"start_time,omitempty"`
}

// Record is the accumulated structured intelligence for one call. The
// same shape doubles as the partial returned by the extraction
// capability; Merge folds a partial into the accumulated state.
type Record struct {
	Persons        []Person `json:"persons_described,omitempty"`
	Location       []string `json:"location,omitempty"`
	Incident       Incident `json:"incident,omitempty"`
	TimeInfo       TimeInfo `json:"time_info,omitempty"`
	AdditionalInfo []string `json:"additional_info,omitempty"`
	NewInformation *bool    `json:"new_information_found,omitempty"`
	Summary        string   `json:"summary,omitempty"`
}

// Clone returns a deep copy so callers can hold snapshots safely.
func (r Record) Clone() Record {
	out := r
	out.Persons = append([]Person(nil), r.Persons...)
	out.Location = append([]string(nil), r.Location...)
	out.AdditionalInfo = append([]string(nil), r.AdditionalInfo...)
	if r.NewInformation != nil {
		v := *r.NewInformation
		out.NewInformation = &v
	}
	return out
}
