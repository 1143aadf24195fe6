package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func makePacket(t *testing.T, seq uint64, msgType string, payload interface{}) []byte {
	t.Helper()
	p, _ := json.Marshal(payload)
	b, err := json.Marshal(Packet{Seq: seq, Type: msgType, Payload: p})
	require.NoError(t, err)
	return b
}

func TestRouter_Dispatch(t *testing.T) {
	r := NewRouter(zap.NewNop())
	var got json.RawMessage
	var traceID string
	r.On("ping", func(ctx context.Context, s *Session, payload json.RawMessage) error {
		got = payload
		traceID = TraceIDFromCtx(ctx)
		return nil
	})

	s := NewSession(1, nil, zap.NewNop())
	r.Dispatch(context.Background(), s, makePacket(t, 1, "ping", map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, string(got))
	assert.NotEmpty(t, traceID)
	assert.Equal(t, s.TraceID, traceID)
}

func TestRouter_Dispatch_IgnoresBadInput(t *testing.T) {
	r := NewRouter(zap.NewNop())
	called := false
	r.On("known", func(context.Context, *Session, json.RawMessage) error {
		called = true
		return nil
	})
	s := NewSession(1, nil, zap.NewNop())

	r.Dispatch(context.Background(), s, []byte("not json"))
	r.Dispatch(context.Background(), s, makePacket(t, 1, "unknown", nil))
	assert.False(t, called)
}

func TestRouter_Dispatch_AntiReplay(t *testing.T) {
	r := NewRouter(zap.NewNop())
	var calls int
	r.On("msg", func(context.Context, *Session, json.RawMessage) error {
		calls++
		return nil
	})
	s := NewSession(1, nil, zap.NewNop())

	r.Dispatch(context.Background(), s, makePacket(t, 5, "msg", nil))
	r.Dispatch(context.Background(), s, makePacket(t, 5, "msg", nil))
	r.Dispatch(context.Background(), s, makePacket(t, 3, "msg", nil))
	assert.Equal(t, 1, calls)

	r.Dispatch(context.Background(), s, makePacket(t, 6, "msg", nil))
	// seq 0 is never tracked.
	r.Dispatch(context.Background(), s, makePacket(t, 0, "msg", nil))
	r.Dispatch(context.Background(), s, makePacket(t, 0, "msg", nil))
	assert.Equal(t, 4, calls)
	assert.Equal(t, uint64(6), s.LastSeq)
}

func TestSession_SendAfterCloseIsDropped(t *testing.T) {
	s := NewSession(1, nil, zap.NewNop())
	s.Send(map[string]string{"a": "b"})
	assert.Len(t, s.sendCh, 1)

	s.Close()
	s.Close()
	assert.True(t, s.IsClosed())
	s.Send(map[string]string{"a": "c"})
	assert.Len(t, s.sendCh, 1)
}
