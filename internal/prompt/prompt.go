package prompt

import (
	"fmt"
	"strings"

	"textloom/internal/filterchain"
	"textloom/internal/grid"
)

// SystemPrompt captures the shared instructions sent with every generation
// request. Keep updates centralized here so it is easy to tweak without
// hunting through call sites.
const SystemPrompt = `You are a precise text rewriting assistant. You receive one piece of text and rewriting instructions.

Rules:

- Preserve the meaning, facts, and approximate length of the text unless the instructions say otherwise.

- Respond ONLY with the rewritten text. No preamble, no commentary, no quotation marks around the result.`

// Grid renders the prompt for one coordinate of the adjective plane. The
// x axis runs from the opposite of adjectiveX (-5) to adjectiveX (+5), the
// y axis likewise for adjectiveY; zero means neutral on that axis.
func Grid(original, adjectiveX, adjectiveY string, coord grid.Coordinate) string {
	var b strings.Builder
	b.WriteString("Rewrite the following text, adjusting its style along two axes:\n\n")
	b.WriteString(axisInstruction(adjectiveX, coord.X))
	b.WriteString("\n")
	b.WriteString(axisInstruction(adjectiveY, coord.Y))
	b.WriteString("\n\nText:\n")
	b.WriteString(strings.TrimSpace(original))
	return b.String()
}

func axisInstruction(adjective string, value int) string {
	adjective = strings.TrimSpace(adjective)
	switch {
	case value == 0:
		return fmt.Sprintf("- Stay neutral with respect to %q: neither more nor less than the original.", adjective)
	case value > 0:
		return fmt.Sprintf("- Make the text more %s, at strength %d of 5.", adjective, value)
	default:
		return fmt.Sprintf("- Make the text less %s (lean toward its opposite), at strength %d of 5.", adjective, -value)
	}
}

// Bridge renders the prompt that blends two texts evenly. Derived bridge
// positions always blend their two nearest already-known neighbors, so the
// mix is always a midpoint, never an arbitrary percentage.
func Bridge(left, right string) string {
	var b strings.Builder
	b.WriteString("Write a text that is the even semantic midpoint of the two texts below: ")
	b.WriteString("halfway in tone, vocabulary, structure, and content. ")
	b.WriteString("It should read as a natural piece of writing, not a mechanical merge.\n\n")
	b.WriteString("Text A:\n")
	b.WriteString(strings.TrimSpace(left))
	b.WriteString("\n\nText B:\n")
	b.WriteString(strings.TrimSpace(right))
	return b.String()
}

var filterInstructions = map[filterchain.FilterID]string{
	filterchain.FilterSimplify:  "simplify the language: shorter sentences, common words, no jargon",
	filterchain.FilterFormalize: "make the register more formal and professional",
	filterchain.FilterCasual:    "make the tone more casual and conversational",
	filterchain.FilterHumor:     "add humor and playful wit",
	filterchain.FilterPoetic:    "make the style more poetic, with imagery and rhythm",
	filterchain.FilterTechnical: "make the style more technical and precise",
	filterchain.FilterDramatic:  "heighten the drama and emotional stakes",
	filterchain.FilterCondense:  "condense the text, keeping only what matters",
	filterchain.FilterExpand:    "expand the text with supporting detail and elaboration",
	filterchain.FilterArchaic:   "shift the diction toward archaic, old-fashioned English",
}

// Filter renders the prompt for one filter application at the given
// intensity (a supported step between 25 and 100).
func Filter(input string, filter filterchain.FilterID, intensity int) string {
	instruction, ok := filterInstructions[filter]
	if !ok {
		instruction = string(filter)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the following text: %s. Apply this at %d%% strength, where 25%% is a subtle shift and 100%% is a full transformation.\n\nText:\n", instruction, filterchain.SnapIntensity(intensity))
	b.WriteString(strings.TrimSpace(input))
	return b.String()
}
