package insight

import "strings"

// Merge folds a partial record into the accumulated one. It is
// deterministic and idempotent: list fields append only elements not
// already present (structural equality), fixed-field maps overwrite only
// with non-empty incoming values, and scalars are replaced wholesale when
// present.
func Merge(acc, in Record) Record {
	out := acc.Clone()

	for _, p := range in.Persons {
		if p.Name == "" && p.Role == "" {
			continue
		}
		if !containsPerson(out.Persons, p) {
			out.Persons = append(out.Persons, p)
		}
	}
	for _, l := range in.Location {
		l = strings.TrimSpace(l)
		if l != "" && !containsString(out.Location, l) {
			out.Location = append(out.Location, l)
		}
	}
	for _, a := range in.AdditionalInfo {
		a = strings.TrimSpace(a)
		if a != "" && !containsString(out.AdditionalInfo, a) {
			out.AdditionalInfo = append(out.AdditionalInfo, a)
		}
	}

	out.Incident = mergeIncident(out.Incident, in.Incident)
	out.TimeInfo = mergeTimeInfo(out.TimeInfo, in.TimeInfo)

	if strings.TrimSpace(in.Summary) != "" {
		out.Summary = in.Summary
	}
	if in.NewInformation != nil {
		v := *in.NewInformation
		out.NewInformation = &v
	}
	return out
}

func mergeIncident(acc, in Incident) Incident {
	if in.Type != "" {
		acc.Type = in.Type
	}
	if in.Description != "" {
		acc.Description = in.Description
	}
	if in.Severity != "" {
		acc.Severity = in.Severity
	}
	if in.Source != "" {
		acc.Source = in.Source
	}
	if in.State != "" {
		acc.State = in.State
	}
	return acc
}

func mergeTimeInfo(acc, in TimeInfo) TimeInfo {
	if in.Duration != "" {
		acc.Duration = in.Duration
	}
	if in.StartTime != "" {
		acc.StartTime = in.StartTime
	}
	return acc
}

func containsPerson(list []Person, p Person) bool {
	for _, e := range list {
		if e == p {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
