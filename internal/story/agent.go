// Package story implements the turn-based multi-agent narrative engine:
// the session data model, the session store, and the six-stage turn
// pipeline that drives a cast of character agents through a persistent
// story world.
package story

// Agent is a cast member capable of acting or reacting within the story.
type Agent struct {
	// Name identifies the agent uniquely within a session.
	Name string `json:"name"`
	// Role is a free-form tag such as "Protagonist", "Mentor" or "Antagonist".
	Role string `json:"role"`
	// Description is the physical description of the character.
	Description string `json:"description"`
	// Personality holds the traits that shape the character's behavior.
	Personality string `json:"personality"`
	// Eligible marks the agent as part of the actor rotation.
	Eligible bool `json:"eligible"`
}
