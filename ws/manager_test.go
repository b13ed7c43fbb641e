package ws

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.msgs = append(f.msgs, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestNotifyFansOutPerUser(t *testing.T) {
	m := NewManager()
	a1, a2, b := &fakeConn{}, &fakeConn{}, &fakeConn{}
	m.Register("ana", a1)
	m.Register("ana", a2)
	m.Register("bea", b)

	m.Notify("ana", map[string]string{"type": "device_status"})

	require.Len(t, a1.msgs, 1)
	require.Len(t, a2.msgs, 1)
	assert.JSONEq(t, `{"type":"device_status"}`, string(a1.msgs[0]))
	assert.Empty(t, b.msgs)
	assert.Equal(t, 1, m.Connections("bea"))
}

func TestNotifyDropsBrokenConnections(t *testing.T) {
	m := NewManager()
	good, bad := &fakeConn{}, &fakeConn{fail: true}
	m.Register("ana", good)
	m.Register("ana", bad)

	m.Notify("ana", "ping")
	assert.Equal(t, 1, m.Connections("ana"))
	assert.True(t, bad.closed)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	m := NewManager()
	c := &fakeConn{}
	unregister := m.Register("ana", c)
	unregister()
	unregister()

	assert.Equal(t, 0, m.Connections("ana"))
	assert.True(t, c.closed)
}
