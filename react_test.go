package finchat

import "testing"

func TestParseAction_FullPattern(t *testing.T) {
	text := "Thought: I should look this up.\nAction: get_stock_info\nAction Input: AAPL"

	req, ok := ParseAction(text)
	if !ok {
		t.Fatal("expected action to be detected")
	}
	if req.Name != "get_stock_info" {
		t.Errorf("expected action name get_stock_info, got %q", req.Name)
	}
	if req.Input != "AAPL" {
		t.Errorf("expected action input AAPL, got %q", req.Input)
	}
}

func TestParseAction_MultilineInputStopsAtObservation(t *testing.T) {
	text := "Action: portfolio_analyzer\nAction Input: 60% stocks\n30% bonds\n10% crypto\nObservation: previous result\nThought:"

	req, ok := ParseAction(text)
	if !ok {
		t.Fatal("expected action to be detected")
	}
	if req.Input != "60% stocks\n30% bonds\n10% crypto" {
		t.Errorf("expected multiline input up to Observation, got %q", req.Input)
	}
}

func TestParseAction_NoMarkers(t *testing.T) {
	if _, ok := ParseAction("Final Answer: the price is $150."); ok {
		t.Error("plain text must not parse as an action")
	}
}

func TestParseAction_PartialMarkers(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"action only", "Action: lookup\nno input marker here"},
		{"input only", "Action Input: AAPL"},
		{"input before action", "Action Input: AAPL\nAction: lookup"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := ParseAction(tc.text); ok {
				t.Errorf("partial pattern %q must not parse as an action", tc.text)
			}
		})
	}
}

func TestParseAction_TrimsWhitespace(t *testing.T) {
	req, ok := ParseAction("Action:   calculate_risk  \nAction Input:   crypto heavy portfolio  ")
	if !ok {
		t.Fatal("expected action to be detected")
	}
	if req.Name != "calculate_risk" {
		t.Errorf("expected trimmed name, got %q", req.Name)
	}
	if req.Input != "crypto heavy portfolio" {
		t.Errorf("expected trimmed input, got %q", req.Input)
	}
}

func TestParseAction_EmptyInputLine(t *testing.T) {
	req, ok := ParseAction("Action: lookup\nAction Input:")
	if !ok {
		t.Fatal("expected action with empty input to be detected")
	}
	if req.Input != "" {
		t.Errorf("expected empty input, got %q", req.Input)
	}
}
