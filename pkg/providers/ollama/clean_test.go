package ollama_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voxenlabs/voxgate/pkg/providers/ollama"
)

func TestCleanReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "It is noon.", "It is noon."},
		{"trims whitespace", "  It is noon.  ", "It is noon."},
		{"cuts at user marker", "It is noon. User: what else?", "It is noon."},
		{"cuts at system marker", "It is noon.\nSystem: be brief", "It is noon."},
		{"cuts at assistant marker", "It is noon. Assistant: more", "It is noon."},
		{"cuts at earliest marker", "Noon. System: x User: y", "Noon."},
		{"trims to sentence boundary", "It is noon. Probably aro", "It is noon."},
		{"keeps exclamation", "Great! Let's go!", "Great! Let's go!"},
		{"keeps question", "How about noon?", "How about noon?"},
		{"no boundary keeps text", "maybe around noon", "maybe around noon"},
		{"empty", "", ""},
		{"only whitespace", "   \n\t ", ""},
		{"only marker", "User: hi", ""},
		{"marker then fragment", "Sure. User: ok Assistant: hm", "Sure."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ollama.CleanReply(tt.in))
		})
	}
}
