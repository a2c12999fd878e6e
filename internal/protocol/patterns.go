package protocol

import "regexp"

// answerPatterns maps each predefined question id to ordered regex
// alternatives tested against the lowercased conversation text. The table
// is tunable detection policy: widening or narrowing an entry changes
// recall, not behavior, and it must be updated together with the
// predefined question set.
var answerPatterns = map[string][]*regexp.Regexp{
	QLocation: compileAll(
		`\b\d+\s+\w+\s+(street|st|road|rd|avenue|ave|lane|ln|drive|dr|boulevard|blvd)\b`,
		`\bsector\s+\d+\b`,
		`\b(near|opposite|behind|next to|in front of)\s+(the\s+)?\w+`,
		`\b(address is|located at|location is|i am at|i'm at|we are at)\b`,
		`\b(apartment|flat|floor|block|building)\s+\w+\b`,
	),
	QNature: compileAll(
		`\b(fire|burning|smoke|flames|explosion)\b`,
		`\b(accident|crash|collision|overturned)\b`,
		`\b(robbery|theft|burglar|assault|attack|fight|gun|knife|shooting)\b`,
		`\b(bleeding|unconscious|not breathing|heart attack|stroke|seizure|overdose)\b`,
		`\b(loud (music|noise)|disturbance|shouting)\b`,
		`\b(flood|flooding|gas leak|chemical|hazardous|spill)\b`,
	),
	QPeople: compileAll(
		`\b(\d+|one|two|three|four|five|six|several|many)\s+(people|persons|individuals|victims|passengers)\b`,
		`\b(trapped|injured|hurt|wounded|unconscious|unresponsive)\b`,
		`\b(no one|nobody|by myself|alone)\b`,
		`\bmy (neighbor|neighbour|husband|wife|child|son|daughter|friend|mother|father)\b`,
	),
	QSafety: compileAll(
		`\b(i am|i'm|we are|we're)\s+(safe|okay|ok|fine|out)\b`,
		`\b(not safe|in danger|threatened|can't get out|cannot get out)\b`,
		`\b(evacuated|evacuating|moved away|outside now)\b`,
	),
	QIdentity: compileAll(
		`\bmy name is\b`,
		`\bthis is [a-z]+ (speaking|calling)\b`,
		`\b(call me back|reach me|my number)\b`,
		`\b(phone|contact|number)\b[^.]*\b\d{4,}\b`,
	),
	QTiming: compileAll(
		`\b\d+\s+(seconds?|minutes?|hours?)\s+ago\b`,
		`\b(just now|just happened|right now|currently|still going|still happening|ongoing)\b`,
		`\b(started|began)\s+(about|around|at|this)\b`,
		`\bsince\s+(this\s+)?(morning|afternoon|evening|night|\d)`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
