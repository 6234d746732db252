package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMode_String(t *testing.T) {
	assert.Equal(t, "ask", ModeAsk.String())
	assert.Equal(t, "chat", ModeChat.String())
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestViewType_String(t *testing.T) {
	assert.Equal(t, "chat", ViewChat.String())
	assert.Equal(t, "documents", ViewDocuments.String())
	assert.Equal(t, "unknown", ViewType(-1).String())
}
