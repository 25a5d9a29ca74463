package gemini

import (
	"fmt"
	"strings"

	"foley/internal/session"
)

func detectionPrompt(maxEvents int) string {
	return fmt.Sprintf(`You are a foley spotting supervisor watching a short video clip.
Identify every distinct moment that needs a sound effect: impacts, movement, object handling, ambience shifts.
Return at most %d events, ordered by when they occur.

Respond with JSON only:
{"events":[{"timestamp":"MM:SS","description":"what happens and what it should sound like","confidence":0.0}]}

Rules:
- timestamp is the moment the sound starts, formatted MM:SS.
- description is one concrete sentence, specific enough to source audio from.
- confidence is your certainty the event needs a sound, between 0 and 1.
- Do not invent events that are not visible in the clip.`, maxEvents)
}

func directionPrompt(events []*session.SoundEvent, styleLabel string) string {
	var builder strings.Builder
	builder.WriteString("You are a foley creative director. For each detected event below, write a three-layer sound design:\n")
	builder.WriteString("- spot: the literal sound of the action itself.\n")
	builder.WriteString("- texture: the material and surface detail coloring the sound.\n")
	builder.WriteString("- vibe: the emotional tone the sound should carry.\n\n")
	if label := strings.TrimSpace(styleLabel); label != "" {
		fmt.Fprintf(&builder, "Overall production style: %s. Every layer must serve this style.\n\n", label)
	}
	builder.WriteString("Events:\n")
	for i, event := range events {
		fmt.Fprintf(&builder, "%d. [%s] %s\n", i+1, event.Timestamp, event.Description)
	}
	fmt.Fprintf(&builder, `
Respond with JSON only, exactly %d entries in the same order:
{"directions":[{"spot":"...","texture":"...","vibe":"..."}]}
`, len(events))
	return builder.String()
}

func reviewPrompt(events []*session.SoundEvent, styleLabel string) string {
	var builder strings.Builder
	builder.WriteString("You are a foley quality reviewer. For each event below, judge whether the produced audio plausibly matches the creative intent.\n")
	if label := strings.TrimSpace(styleLabel); label != "" {
		fmt.Fprintf(&builder, "Production style: %s.\n", label)
	}
	builder.WriteString("\nEvents:\n")
	for i, event := range events {
		fmt.Fprintf(&builder, "%d. [%s] %s\n", i+1, event.Timestamp, event.Description)
		fmt.Fprintf(&builder, "   spot: %s\n   texture: %s\n   vibe: %s\n", event.Layers.Spot, event.Layers.Texture, event.Layers.Vibe)
		fmt.Fprintf(&builder, "   provenance: %s\n", event.Provenance)
	}
	fmt.Fprintf(&builder, `
Respond with JSON only, exactly %d entries in the same order:
{"verdicts":[{"passed":true,"coherenceScore":0.0,"feedback":"...","suggestedFix":"..."}]}

Rules:
- coherenceScore is between 0 and 1.
- When passed is false, feedback must name the specific mismatch and suggestedFix must be a replacement search query.
- When passed is true, leave feedback and suggestedFix empty.`, len(events))
	return builder.String()
}
