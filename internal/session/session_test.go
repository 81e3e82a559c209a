package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/emitter"
	"github.com/dgallion1/mdast/internal/parser"
)

func TestSession_AppendClear(t *testing.T) {
	s := New()
	s.Append("# Ti")
	s.Append("tle\n")
	assert.Equal(t, "# Title\n", s.Text())
	assert.Equal(t, 8, s.Len())

	s.SetHighlight(100)
	assert.Equal(t, 8, s.Highlight())

	s.Clear()
	assert.Empty(t, s.Text())
	assert.Zero(t, s.Highlight())
}

func TestSession_Subscribe(t *testing.T) {
	s := New()
	calls := 0
	cancel := s.Subscribe(func() { calls++ })

	s.Append("a")
	s.Clear()
	assert.Equal(t, 2, calls)

	cancel()
	cancel()
	s.Append("b")
	assert.Equal(t, 2, calls)
}

func TestSession_SubscriberMayReadText(t *testing.T) {
	s := New()
	var seen string
	s.Subscribe(func() { seen = s.Text() })
	s.Append("hello")
	assert.Equal(t, "hello", seen)
}

func TestSession_ParseGrowingDocument(t *testing.T) {
	p := parser.NewMarkdownParser(emitter.DefaultOptions, nil)
	s := New()

	s.Append("# Head")
	res, err := s.Parse(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, ast.Verify(res.Root))
	first := res.Nodes

	s.Append("ing\n\n- one\n- two\n")
	res, err = s.Parse(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, ast.Verify(res.Root))
	assert.Greater(t, res.Nodes, first)
	assert.Equal(t, ast.Offset(s.Len()), res.Root.End)
}

func TestSession_ConcurrentAppend(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.Append("x")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, s.Len())
}

func TestStore_Lifecycle(t *testing.T) {
	var last int
	st := NewStore(time.Hour, func(n int) { last = n })

	s := st.Create()
	assert.Equal(t, 1, last)

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, st.Delete(s.ID))
	assert.Equal(t, 0, last)
	assert.ErrorIs(t, st.Delete(s.ID), ErrNotFound)

	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Cleanup(t *testing.T) {
	st := NewStore(50*time.Millisecond, nil)
	old := st.Create()
	time.Sleep(100 * time.Millisecond)
	fresh := st.Create()

	assert.Equal(t, 1, st.Cleanup())
	_, err := st.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestTimeline_Words(t *testing.T) {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	tl := NewTimeline(map[int]time.Duration{0: ms(0), 1: ms(300), 2: ms(650), -1: ms(5)})
	assert.Equal(t, 3, tl.Len())

	tests := []struct {
		at   time.Duration
		want int
	}{
		{-ms(1), 0},
		{0, 1},
		{ms(299), 1},
		{ms(300), 2},
		{ms(10_000), 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tl.Words(tt.at), "at %s", tt.at)
	}

	assert.Zero(t, NewTimeline(nil).Words(ms(100)))
}

func TestTimeline_OutOfOrderTimes(t *testing.T) {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	tl := NewTimeline(map[int]time.Duration{0: ms(100), 1: ms(50), 2: ms(200)})

	assert.Equal(t, 2, tl.Words(ms(60)))
	assert.Equal(t, 2, tl.Words(ms(150)))
	assert.Equal(t, 3, tl.Words(ms(200)))
	assert.Zero(t, tl.Words(ms(10)))
}

func TestWordEnd(t *testing.T) {
	s := "# Hello  big\nworld"
	assert.Equal(t, 0, wordEnd(s, 0))
	assert.Equal(t, 1, wordEnd(s, 1))
	assert.Equal(t, 7, wordEnd(s, 2))
	assert.Equal(t, 12, wordEnd(s, 3))
	assert.Equal(t, len(s), wordEnd(s, 4))
	assert.Equal(t, len(s), wordEnd(s, 9))
}

func TestSession_Seek(t *testing.T) {
	s := New()
	s.Append("one two three")
	assert.Zero(t, s.Seek(time.Second), "no timeline yet")

	s.AddTimestamps(map[int]time.Duration{0: 0, 1: 400 * time.Millisecond})
	s.AddTimestamps(map[int]time.Duration{2: 900 * time.Millisecond})
	assert.Equal(t, 3, s.Seek(100*time.Millisecond))
	assert.Equal(t, 7, s.Seek(500*time.Millisecond))
	assert.Equal(t, 13, s.Seek(time.Second))
	assert.Equal(t, 13, s.Highlight())

	s.Clear()
	s.Append("again")
	assert.Zero(t, s.Seek(time.Second))
}
