package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideWrite(t *testing.T) {
	tests := []struct {
		name        string
		hasExisting bool
		trusted     bool
		want        writeAction
	}{
		{"trusted write with match updates", true, true, writeUpdate},
		{"trusted write without match inserts", false, true, writeInsert},
		{"untrusted write with match inserts", true, false, writeInsert},
		{"untrusted write without match inserts", false, false, writeInsert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decideWrite(tt.hasExisting, tt.trusted))
		})
	}
}

func TestPreferenceTrusted(t *testing.T) {
	// Exclusive threshold: exactly 0.7 is not enough.
	assert.False(t, preferenceTrusted(0.7, 0.7))
	assert.True(t, preferenceTrusted(0.71, 0.7))
	assert.False(t, preferenceTrusted(0.2, 0.7))
}

func TestProfileTrusted(t *testing.T) {
	// Inclusive threshold, trusted sources only.
	assert.True(t, profileTrusted(0.8, 0.8, SourceUserDirect))
	assert.True(t, profileTrusted(0.9, 0.8, SourceConversation))
	assert.False(t, profileTrusted(0.79, 0.8, SourceUserDirect))
	assert.False(t, profileTrusted(1.0, 0.8, SourceInference))
	assert.False(t, profileTrusted(1.0, 0.8, "somewhere"))
}

func TestRelationshipStage(t *testing.T) {
	assert.Equal(t, "initial contact", relationshipStage(1.0))
	assert.Equal(t, "initial contact", relationshipStage(2.9))
	assert.Equal(t, "early familiarity", relationshipStage(3.0))
	assert.Equal(t, "established rapport", relationshipStage(5.5))
	assert.Equal(t, "intimate", relationshipStage(7.0))
	assert.Equal(t, "deeply intimate", relationshipStage(9.0))
	assert.Equal(t, "deeply intimate", relationshipStage(10.0))
}
