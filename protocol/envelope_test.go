package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Command
		err  error
	}{
		{
			name: "acknowledge",
			raw:  `{"category":"acknowledge","action":"login","token":"tok"}`,
			want: AckCommand{},
		},
		{
			name: "bet with amount",
			raw:  `{"category":"game","action":"bet","token":"tok","amount":250}`,
			want: GameCommand{Verb: GameBet, Amount: 250},
		},
		{
			name: "join carries group id",
			raw:  `{"category":"group","action":"join_group","token":"tok","group_id":"ABCDEF"}`,
			want: GroupCommand{Verb: GroupJoin, GroupID: "ABCDEF"},
		},
		{
			name: "private chat",
			raw:  `{"category":"chat","action":"private","token":"tok","target":"u2","text":"hi"}`,
			want: ChatCommand{Scope: ChatPrivate, Target: "u2", Text: "hi"},
		},
		{
			name: "unknown chat scope passes through",
			raw:  `{"category":"chat","action":"shout","token":"tok","text":"hi"}`,
			want: ChatCommand{Scope: "shout", Text: "hi"},
		},
		{
			name: "missing token",
			raw:  `{"category":"game","action":"hit"}`,
			err:  ErrMissingToken,
		},
		{
			name: "missing action",
			raw:  `{"category":"game","token":"tok"}`,
			err:  ErrBadEnvelope,
		},
		{
			name: "unknown game action",
			raw:  `{"category":"game","action":"fold","token":"tok"}`,
			err:  ErrUnknownCommand,
		},
		{
			name: "unknown category",
			raw:  `{"category":"admin","action":"kick","token":"tok"}`,
			err:  ErrUnknownCommand,
		},
		{
			name: "not json",
			raw:  `{"category":`,
			err:  ErrBadEnvelope,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmd, err := Decode([]byte(tt.raw))
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}
