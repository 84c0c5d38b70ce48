package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmpoker/internal/engine"
)

func TestParseActionLineRecognizesEachVerb(t *testing.T) {
	tests := []struct {
		text       string
		wantAction engine.Action
		wantAmount int64
	}{
		{"I think the odds favor aggression here.\nFOLD", engine.ActionFold, 0},
		{"The board is dry, I'll just CHECK.", engine.ActionCheck, 0},
		{"Pot odds are good.\nCALL", engine.ActionCall, 0},
		{"Strong hand, time to build the pot.\nRAISE $250", engine.ActionRaise, 250},
		{"Shoving with the nuts.\nALL-IN", engine.ActionAllIn, 0},
		{"going all in, no choice\nALLIN", engine.ActionAllIn, 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			action, amount, err := parseActionLine(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantAmount, amount)
		})
	}
}

func TestParseActionLineRejectsUnrecognizedText(t *testing.T) {
	_, _, err := parseActionLine("I am thinking about my options but haven't decided.")
	assert.Error(t, err)
}

func TestParseActionLineRejectsRaiseWithNoAmount(t *testing.T) {
	_, _, err := parseActionLine("Time to raise the stakes.\nRAISE")
	assert.Error(t, err)
}
