package story

import (
	"fmt"
	"strings"
)

// Prompt construction for the six turn stages and session setup. Each stage
// gets a role-conditioned system instruction plus a user message carrying
// the stage inputs; the narrator additionally gets the dramatize mandate so
// raw stage artifacts never leak to the reader as-is.

const castSystem = `You are an experienced showrunner. Create a cast for the given scenario.
JSON format:
{
  "agents": [
    {"name": "...", "role": "Protagonist/Mentor/Antagonist", "description": "...", "personality": "..."}
  ],
  "visual_style": "...",
  "starting_location": "..."
}`

func actorSystem(actor *Agent, quest string) string {
	return fmt.Sprintf(
		"You are %s (%s). Personality: %s.\n"+
			"Act based on the current quest: %s.\n"+
			"Write your action and any spoken dialogue (in quotation marks).",
		actor.Name, actor.Description, actor.Personality, quest)
}

func actorUser(context, intervention string) string {
	if intervention == "" {
		intervention = "nothing"
	}
	return fmt.Sprintf("%s\n\nOutside influence (fate): %s\nWhat do you do?", context, intervention)
}

const reactSystem = "You are a co-author. Who must react to this action? " +
	"Answer briefly from their point of view. If nobody, answer 'PASS'."

func reactUser(actorName, action string, bystanders []Agent) string {
	names := make([]string, len(bystanders))
	for i, a := range bystanders {
		names[i] = a.Name
	}
	return fmt.Sprintf("Action by %s: %s\nPresent: %s", actorName, action, strings.Join(names, ", "))
}

const updateSystem = `You are the game engine logic processor.
Analyze the action and update the state.
JSON output: {
    "new_location": "...", (only if changed, otherwise null)
    "inventory_changes": ["+Item", "-Item"],
    "quest_update": "...", (new quest or null)
    "success": true/false
}`

func updateUser(state *StoryState, action, intervention string) string {
	return fmt.Sprintf("Old state: %s\nAction: %s\nFate: %s", state.String(), action, intervention)
}

const narratorSystem = "You are a novelist. Write the next section of the story. " +
	"IMPORTANT: The reader does NOT see the actor's input text. " +
	"You must integrate and spell out the actor's behavior (dialogue, encounters, actions) in your prose. " +
	"Do not merely summarize the result; tell how it came to pass. " +
	"RULE 1: The reader does not know the input data. You must depict it in the text. " +
	"RULE 2: If the actor says something or meets someone, it must appear in the text. " +
	"RULE 3: Avoid summaries like 'After they met...'; write the scene out."

// beginningMarker anchors narration when no prior prose exists.
const beginningMarker = "This is the beginning of the story."

func narratorUser(sess *Session, actor *Agent, action, reaction string, success bool) string {
	anchor := beginningMarker
	if len(sess.NarrativeHistory) > 0 {
		anchor = sess.NarrativeHistory[len(sess.NarrativeHistory)-1]
	}
	outcome := "Failure"
	if success {
		outcome = "Success"
	}
	return fmt.Sprintf(
		"Style: %s\n"+
			"Previous paragraph (context): %s\n\n"+
			"THIS HAPPENS NOW (integrate it into the story):\n"+
			"1. ACTION (%s): %s\n"+
			"2. REACTIONS: %s\n"+
			"3. OUTCOME: %s. New quest: %s.",
		sess.VisualStyle, anchor, actor.Name, action, reaction, outcome, sess.State.CurrentQuest)
}

const artSystem = "You are an art director for a storybook. " +
	"Create an image generation prompt (in English). " +
	"IMPORTANT: Avoid copyrighted names. " +
	"Describe figures abstractly (e.g. 'a lemon character' instead of a proper name). " +
	"Avoid wording that could be read as violent or suggestive."

func artUser(style, prose string) string {
	return fmt.Sprintf("Style: %s\nText: %s", style, prose)
}

const summarySystem = "Summarize the story so far in 3 sentences. " +
	"Keep the important facts (places, items)."
