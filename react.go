package finchat

import "strings"

// Free-text tool invocation follows the ReAct convention: the model writes
//
//	Action: <tool name>
//	Action Input: <input text>
//
// on their own lines, and the runtime feeds the result back as an
// Observation. ParseAction extracts that pattern; it is kept separate from
// the loop so it can be tested without any model call.

// ActionRequest is a tool invocation parsed from free text.
type ActionRequest struct {
	Name  string
	Input string
}

const (
	actionMarker      = "Action:"
	actionInputMarker = "Action Input:"
	observationMarker = "Observation:"
)

// ParseAction scans text for the Action / Action Input markers, in that
// order, each on its own line. It returns the parsed request and true when
// both are present; the input runs until a line starting with
// "Observation:" or end of text. Partial markers mean no action: the text
// is treated as a final answer.
func ParseAction(text string) (ActionRequest, bool) {
	lines := strings.Split(text, "\n")

	actionLine := -1
	var name string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, actionMarker) && !strings.HasPrefix(trimmed, actionInputMarker) {
			name = strings.TrimSpace(strings.TrimPrefix(trimmed, actionMarker))
			actionLine = i
			break
		}
	}
	if actionLine < 0 || name == "" {
		return ActionRequest{}, false
	}

	inputLine := -1
	var inputParts []string
	for i := actionLine + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, actionInputMarker) {
			inputLine = i
			inputParts = append(inputParts, strings.TrimSpace(strings.TrimPrefix(trimmed, actionInputMarker)))
			break
		}
	}
	if inputLine < 0 {
		return ActionRequest{}, false
	}

	for i := inputLine + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), observationMarker) {
			break
		}
		inputParts = append(inputParts, lines[i])
	}

	return ActionRequest{
		Name:  name,
		Input: strings.TrimSpace(strings.Join(inputParts, "\n")),
	}, true
}
