package confirmstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wallet-agent/internal/domain"
)

var sample = domain.TransferIntent{Amount: "1", Token: "ETH", Recipient: "ann.base.eth"}

func TestTakeIfPending_ConsumesOnce(t *testing.T) {
	s := New()
	s.Put("chat-1", sample)

	got, ok := s.TakeIfPending("chat-1")
	require.True(t, ok)
	require.Equal(t, sample, got)

	_, ok = s.TakeIfPending("chat-1")
	require.False(t, ok)
}

func TestTakeIfPending_EmptyStore(t *testing.T) {
	s := New()
	_, ok := s.TakeIfPending("chat-1")
	require.False(t, ok)
}

func TestTakeIfPending_KeyedByConversation(t *testing.T) {
	s := New()
	s.Put("chat-1", sample)

	_, ok := s.TakeIfPending("chat-2")
	require.False(t, ok)

	_, ok = s.TakeIfPending("chat-1")
	require.True(t, ok)
}

func TestPut_LastWriteWins(t *testing.T) {
	s := New()
	s.Put("chat-1", domain.TransferIntent{Amount: "1", Token: "ETH", Recipient: "a.eth"})
	second := domain.TransferIntent{Amount: "2", Token: "BTC", Recipient: "b.eth"}
	s.Put("chat-1", second)

	got, ok := s.TakeIfPending("chat-1")
	require.True(t, ok)
	require.Equal(t, second, got)

	_, ok = s.TakeIfPending("chat-1")
	require.False(t, ok)
}

func TestTakeIfPending_Expiry(t *testing.T) {
	now := time.Now()
	s := New()
	s.now = func() time.Time { return now }

	s.Put("chat-1", sample)

	now = now.Add(TTL + time.Second)
	_, ok := s.TakeIfPending("chat-1")
	require.False(t, ok)

	// The expired entry is gone, not resurrectable by rolling the clock back.
	now = now.Add(-2 * time.Second)
	_, ok = s.TakeIfPending("chat-1")
	require.False(t, ok)
}

func TestPut_ResetsTTL(t *testing.T) {
	now := time.Now()
	s := New()
	s.now = func() time.Time { return now }

	s.Put("chat-1", sample)
	now = now.Add(TTL - time.Second)
	s.Put("chat-1", sample)
	now = now.Add(TTL - time.Second)

	got, ok := s.TakeIfPending("chat-1")
	require.True(t, ok)
	require.Equal(t, sample, got)
}

func TestClear(t *testing.T) {
	s := New()
	s.Put("chat-1", sample)
	s.Clear("chat-1")

	_, ok := s.TakeIfPending("chat-1")
	require.False(t, ok)

	// Clearing an absent key is a no-op.
	s.Clear("chat-2")
}
