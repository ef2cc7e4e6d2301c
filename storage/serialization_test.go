package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalSession(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name    string
		session *core.Session
	}{
		{
			name:    "new session without history",
			session: &core.Session{ProjectID: "1", SessionID: "abc", CreatedAt: now, UpdatedAt: now},
		},
		{
			name: "session with turns",
			session: &core.Session{
				ProjectID: "42",
				SessionID: "0b7a7f0e-9d1c-4c55-8f43-3b2f1b1f0d11",
				History: []core.Turn{
					{Role: core.RoleUser, Content: "What is the budget?", At: now},
					{Role: core.RoleAssistant, Content: "The budget is $4M.\n\nSee table 2.", At: now.Add(time.Second)},
				},
				CreatedAt: now,
				UpdatedAt: now.Add(time.Second),
			},
		},
		{
			name: "unicode and long content",
			session: &core.Session{
				ProjectID: "p",
				SessionID: "s",
				History: []core.Turn{
					{Role: core.RoleUser, Content: "¿Dónde está el informe? 报告", At: now},
					{Role: core.RoleAssistant, Content: strings.Repeat("lorem ipsum ", 2000), At: now},
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalSession(tt.session)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalSession(data)
			require.NoError(t, err)
			assert.Equal(t, tt.session.ProjectID, decoded.ProjectID)
			assert.Equal(t, tt.session.SessionID, decoded.SessionID)
			assert.True(t, tt.session.CreatedAt.Equal(decoded.CreatedAt))
			assert.True(t, tt.session.UpdatedAt.Equal(decoded.UpdatedAt))
			require.Len(t, decoded.History, len(tt.session.History))
			for i, turn := range tt.session.History {
				assert.Equal(t, turn.Role, decoded.History[i].Role)
				assert.Equal(t, turn.Content, decoded.History[i].Content)
				assert.True(t, turn.At.Equal(decoded.History[i].At))
			}
		})
	}
}

func TestUnmarshalSession_Invalid(t *testing.T) {
	now := time.Now().UTC()
	valid := MarshalSession(&core.Session{
		ProjectID: "1",
		SessionID: "s",
		History:   []core.Turn{{Role: core.RoleUser, Content: "hello", At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", valid[:len(valid)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalSession(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalSession_ZeroTimes(t *testing.T) {
	decoded, err := UnmarshalSession(MarshalSession(&core.Session{ProjectID: "1"}))
	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.IsZero())
	assert.Empty(t, decoded.History)
}
