package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	s := New("sess-1", serverConn)
	t.Cleanup(s.Close)
	return s, clientConn
}

func TestNewSessionStartsInGreeting(t *testing.T) {
	s, _ := newPipeSession(t)
	assert.Equal(t, PhaseGreeting, s.CurrentPhase())
	assert.Equal(t, "en", s.Locale)
	assert.True(t, s.PlainText)
}

func TestSetPhaseTransitions(t *testing.T) {
	s, _ := newPipeSession(t)
	s.SetPhase(PhaseAuthUser)
	assert.Equal(t, PhaseAuthUser, s.CurrentPhase())
}

func TestIdentityRoundTrip(t *testing.T) {
	s, _ := newPipeSession(t)
	s.SetIdentity("player-1", "Alice", "ko")
	playerID, username, locale := s.Identity()
	assert.Equal(t, "player-1", playerID)
	assert.Equal(t, "Alice", username)
	assert.Equal(t, "ko", locale)
}

func TestPendingUsername(t *testing.T) {
	s, _ := newPipeSession(t)
	s.SetPendingUsername("bob")
	assert.Equal(t, "bob", s.PendingUsername)
}

func TestBumpAuthFailureCountsAndResets(t *testing.T) {
	s, _ := newPipeSession(t)
	require.Equal(t, 1, s.BumpAuthFailure())
	require.Equal(t, 2, s.BumpAuthFailure())
	require.Equal(t, 3, s.BumpAuthFailure())
	s.ResetAuthFailures()
	assert.Equal(t, 1, s.BumpAuthFailure())
}

func TestHistoryExpandBangBang(t *testing.T) {
	s, _ := newPipeSession(t)
	s.RecordHistory("look")
	s.RecordHistory("north")
	assert.Equal(t, "north", s.ExpandHistory("!!"))
	assert.Equal(t, "look", s.ExpandHistory("!2"))
	assert.Equal(t, "say hi", s.ExpandHistory("say hi"))
}

func TestReadLineStripsTelnetAndCRLF(t *testing.T) {
	s, clientConn := newPipeSession(t)

	go func() {
		clientConn.Write([]byte{telnetIAC, telnetWILL, 1})
		clientConn.Write([]byte("look\r\n"))
	}()

	line, err := s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "look", line)
}

func TestSendLineAppendsCRLF(t *testing.T) {
	s, clientConn := newPipeSession(t)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := clientConn.Read(buf)
		done <- buf[:n]
	}()

	s.SendLine("hello")

	select {
	case got := <-done:
		assert.Equal(t, "hello\r\n", string(got))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for SendLine output")
	}
}

func TestTouchUpdatesLastActivity(t *testing.T) {
	s, _ := newPipeSession(t)
	before := s.IdleFor()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, s.IdleFor(), before)
	s.Touch()
	assert.Less(t, s.IdleFor(), before+5*time.Millisecond)
}
