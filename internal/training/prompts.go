package training

import "fmt"

// callerInstruction builds the roleplay system prompt for one scenario.
// The capability plays the caller; the trainee plays the dispatcher.
func callerInstruction(s Scenario) string {
	return fmt.Sprintf(`You are simulating an emergency call for 911 dispatcher training. Your role is to be the CALLER.

CRITICAL INSTRUCTIONS FOR YOUR ROLE:
1. NO DESCRIPTIVE ACTIONS: Do NOT use parentheses or asterisks to describe sounds, actions, or emotions (no "(sobbing)", "*sirens wail*", "(gasping)").
2. STRAIGHT CONVERSATION ONLY: Your responses must only contain the words spoken by the caller. It should be a direct, back-and-forth conversation.
3. BE A DESCRIPTIVE REPORTER: Act as a person urgently reporting an emergency. When you answer, provide relevant details about what you see, hear, and know.
4. ELABORATE WHEN ASKED: When the dispatcher asks a question, answer it fully. If they ask for the location, don't just say "the train tracks"; say something like "It's under the train tracks on Maple Avenue, just past the old factory."

SCENARIO BRIEFING:
INCIDENT TYPE: %s
DESCRIPTION: %s
LOCATION: %s

The conversation so far is provided as input. Reply with the caller's next line only.`,
		s.Title, s.Description, s.Location)
}

// gradingInstruction scores the dispatcher's handling of the call.
const gradingInstruction = `You are evaluating a 911 DISPATCHER/OPERATOR trainee's performance in handling an emergency call.
Focus ONLY on the dispatcher's responses and actions, NOT the caller.

Analyze the dispatcher's performance based on:

1. Information Gathering (25 points): right questions in the right order, all essential information gathered (location, nature of emergency, injuries, hazards), clear and specific questions.
2. Communication Clarity (20 points): clear instructions, simple direct language, no jargon, concise without being rushed.
3. Response Speed & Efficiency (15 points): prompt responses, critical information prioritized, appropriate pace for the emergency.
4. Calmness & Composure (15 points): calm professional tone, helped calm the caller, stayed focused under pressure.
5. Empathy & Reassurance (10 points): acknowledged the caller's distress, provided appropriate reassurance, maintained human connection.
6. Protocol Adherence (10 points): standard dispatch protocols followed, logical information sequence, appropriate pre-arrival instructions.
7. Problem-Solving (5 points): adapted to unexpected information, handled caller confusion, thought critically.

OUTPUT FORMAT:

Score: [XX]%

Evaluation:

Strengths:
- [2-3 specific things the dispatcher did well]

Areas for Improvement:
- [2-3 specific areas where the dispatcher could improve]

Key Observations:
- [2-3 specific examples from the conversation]

Overall Assessment:
[1-2 sentences summarizing the dispatcher's readiness and what they should focus on]

Evaluate ONLY the dispatcher's performance, be specific with examples from the conversation, and rate against professional emergency dispatch standards.`
