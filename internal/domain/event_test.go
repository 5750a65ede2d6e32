package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Event
	}{
		{
			name: "join",
			data: `{"type":"join","username":"alice"}`,
			want: Join{Username: "alice"},
		},
		{
			name: "leave",
			data: `{"type":"leave","username":"alice"}`,
			want: Leave{Username: "alice"},
		},
		{
			name: "chat",
			data: `{"type":"chat","messageId":"m1","username":"bob","message":"hi"}`,
			want: Chat{MessageID: "m1", Username: "bob", Message: "hi"},
		},
		{
			name: "edit",
			data: `{"type":"edit","messageId":"m1","username":"bob","message":"hello"}`,
			want: Edit{MessageID: "m1", Username: "bob", Message: "hello"},
		},
		{
			name: "delete",
			data: `{"type":"delete","messageId":"m1","username":"bob"}`,
			want: Delete{MessageID: "m1", Username: "bob"},
		},
		{
			name: "notification",
			data: `{"type":"notification","message":"bob joined the room"}`,
			want: Notification{Message: "bob joined the room"},
		},
		{
			name: "activeUsers",
			data: `{"type":"activeUsers","users":["alice","bob"]}`,
			want: ActiveUsers{Users: []string{"alice", "bob"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEventErrors(t *testing.T) {
	_, err := DecodeEvent([]byte("{{{"))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	events := []Event{
		Join{Username: "alice"},
		Leave{Username: "alice"},
		Chat{MessageID: "m1", Username: "alice", Message: "hi"},
		Edit{MessageID: "m1", Username: "alice", Message: "hello"},
		Delete{MessageID: "m1", Username: "alice"},
		Notification{Message: "alice joined the room"},
		ActiveUsers{Users: []string{"alice"}},
	}

	for _, ev := range events {
		data, err := EncodeEvent(ev)
		require.NoError(t, err)
		back, err := DecodeEvent(data)
		require.NoError(t, err)
		assert.Equal(t, ev, back)
	}
}

func TestEncodeUsesWireFieldNames(t *testing.T) {
	data, err := EncodeEvent(Chat{MessageID: "m1", Username: "alice", Message: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","messageId":"m1","username":"alice","message":"hi"}`, string(data))
}
