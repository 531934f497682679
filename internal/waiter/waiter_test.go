package waiter

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// scriptedSource returns successive answers, repeating the last one.
type scriptedSource struct {
	answers [][]string
	errs    []error
	calls   int
}

func (s *scriptedSource) IndexedPaths(ctx context.Context, prefix string) ([]string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	if i < 0 {
		return nil, nil
	}
	return s.answers[i], nil
}

func TestWait_EmptyExpected(t *testing.T) {
	src := &scriptedSource{}
	w := New(src, WithClock(&fakeClock{}))
	res, err := w.Wait(context.Background(), nil, "Notes", time.Minute)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if src.calls != 0 {
		t.Errorf("store queried %d times, want 0", src.calls)
	}
	if res.Expected != 0 || res.Polls != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestWait_AllIndexedAfterPolls(t *testing.T) {
	src := &scriptedSource{answers: [][]string{
		{"Notes/old.md"},
		{"Notes/old.md", "Notes/a.md"},
		{"Notes/old.md", "Notes/a.md", "Notes/sub/b.md"},
	}}
	w := New(src, WithClock(&fakeClock{}), WithInterval(5*time.Second))
	res, err := w.Wait(context.Background(), []string{"a.md", "b.md"}, "Notes", time.Minute)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Found != 2 || res.Expected != 2 || len(res.Missing) != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Polls != 3 {
		t.Errorf("polls = %d, want 3", res.Polls)
	}
}

func TestWait_TimeoutPartial(t *testing.T) {
	src := &scriptedSource{answers: [][]string{{"Notes/a.md"}}}
	w := New(src, WithClock(&fakeClock{}), WithInterval(5*time.Second))
	res, err := w.Wait(context.Background(), []string{"a.md", "b.md"}, "Notes", 60*time.Second)
	if !errors.Is(err, ErrIndexingTimeout) {
		t.Fatalf("err = %v, want ErrIndexingTimeout", err)
	}
	if res.Found != 1 || res.Expected != 2 {
		t.Errorf("found %d of %d, want 1 of 2", res.Found, res.Expected)
	}
	if !reflect.DeepEqual(res.Missing, []string{"b.md"}) {
		t.Errorf("missing = %v", res.Missing)
	}
	if res.Polls != 12 {
		t.Errorf("polls = %d, want 12", res.Polls)
	}
}

func TestWait_QueryErrorKeepsPolling(t *testing.T) {
	src := &scriptedSource{
		answers: [][]string{nil, {"Notes/a.md"}},
		errs:    []error{errors.New("database is locked")},
	}
	w := New(src, WithClock(&fakeClock{}), WithInterval(time.Second))
	res, err := w.Wait(context.Background(), []string{"a.md"}, "Notes", 10*time.Second)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Polls != 2 || res.Found != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedSource{answers: [][]string{nil}}
	w := New(src, WithInterval(time.Hour))
	_, err := w.Wait(ctx, []string{"a.md"}, "Notes", time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestUniqueNames(t *testing.T) {
	got := uniqueNames([]string{"b.md", "dir/a.md", "a.md", ""})
	want := []string{"a.md", "b.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uniqueNames = %v, want %v", got, want)
	}
}
