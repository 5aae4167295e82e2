package controller_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/set-night/telegpt/internal/config"
	"github.com/set-night/telegpt/internal/controller"
	"github.com/set-night/telegpt/internal/domain"
	"github.com/set-night/telegpt/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu     sync.Mutex
	sends  []string
	longs  []string
	edits  []string
	nextID int
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sends = append(f.sends, text)
	return f.nextID, nil
}

func (f *fakeTransport) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeTransport) SendTyping(ctx context.Context, chatID int64) {}

func (f *fakeTransport) SendLongMessage(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.longs = append(f.longs, text)
	return nil
}

func (f *fakeTransport) allSends() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

type fakeStream struct {
	frags []domain.Fragment
}

func (s *fakeStream) Recv() (domain.Fragment, error) {
	if len(s.frags) == 0 {
		return domain.Fragment{}, io.EOF
	}
	f := s.frags[0]
	s.frags = s.frags[1:]
	return f, nil
}

func (s *fakeStream) Close() error { return nil }

type fakeModel struct {
	mu            sync.Mutex
	comp          *domain.Completion
	compErr       error
	frags         []domain.Fragment
	completeCalls int
	lastHistory   []domain.Turn

	blockStarted chan struct{}
	blockRelease chan struct{}
}

func (m *fakeModel) Complete(ctx context.Context, history []domain.Turn) (*domain.Completion, error) {
	m.mu.Lock()
	m.completeCalls++
	m.lastHistory = append([]domain.Turn(nil), history...)
	started, release := m.blockStarted, m.blockRelease
	m.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	if m.compErr != nil {
		return nil, m.compErr
	}
	return m.comp, nil
}

func (m *fakeModel) StreamComplete(ctx context.Context, history []domain.Turn) (domain.CompletionStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastHistory = append([]domain.Turn(nil), history...)
	return &fakeStream{frags: append([]domain.Fragment(nil), m.frags...)}, nil
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalls
}

func newTestController(model domain.ModelClient, tr controller.Transport) (*controller.Controller, *service.SessionStore) {
	cfg := &config.Config{DefaultContext: "default context"}
	store := service.NewSessionStore(cfg.DefaultContext)
	return controller.New(cfg, store, model, tr), store
}

func TestSetContextThenStaticAnswer(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{comp: &domain.Completion{Content: "model output", TotalTokens: 5}}
	ctrl, store := newTestController(model, tr)

	assert.Equal(t, "Input a context: ", ctrl.BeginSetContext(1))

	// The next plain message is consumed as the context, not a turn.
	ctrl.HandleText(context.Background(), 1, 1, "be terse")

	sess, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "be terse", sess.SystemContext)
	assert.Equal(t, "be terse", sess.History[0].Content)
	assert.False(t, sess.AwaitingContext)
	assert.Len(t, sess.History, 1)
	assert.Zero(t, model.calls())

	ctrl.HandleText(context.Background(), 1, 1, "hello")

	sess, _ = store.Get(1)
	require.Len(t, sess.History, 3)
	assert.Equal(t, domain.Turn{Role: domain.RoleSystem, Content: "be terse"}, sess.History[0])
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "hello"}, sess.History[1])
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "model output"}, sess.History[2])
	require.Len(t, tr.longs, 1)
	assert.Contains(t, tr.longs[0], "model output")
	assert.Contains(t, tr.longs[0], "tokens used: 5")
}

func TestSecondSetContextLeavesContextUntouched(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, store := newTestController(&fakeModel{}, tr)

	ctrl.BeginSetContext(1)
	ctrl.BeginSetContext(1)

	sess, _ := store.Get(1)
	assert.Equal(t, "default context", sess.SystemContext)
	assert.True(t, sess.AwaitingContext)
}

func TestSuspendedSkipsGeneration(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{comp: &domain.Completion{Content: "x"}}
	ctrl, store := newTestController(model, tr)

	ctrl.Suspend(1)
	ctrl.HandleText(context.Background(), 1, 1, "hi")

	assert.Zero(t, model.calls())
	sess, _ := store.Get(1)
	assert.Len(t, sess.History, 1)
	require.Len(t, tr.sends, 1)
	assert.Contains(t, tr.sends[0], "suspended")
}

func TestSuspendResumeIdempotent(t *testing.T) {
	tr := &fakeTransport{}
	ctrl, store := newTestController(&fakeModel{}, tr)

	ctrl.Suspend(1)
	ctrl.Suspend(1)
	ctrl.Resume(1)

	sess, _ := store.Get(1)
	assert.False(t, sess.Suspended)

	ctrl.ToggleMode(1)
	ctrl.ToggleMode(1)
	ctrl.ToggleMode(1)

	sess, _ = store.Get(1)
	assert.Equal(t, domain.ModeStreamed, sess.Mode)
}

func TestClearHistory(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{comp: &domain.Completion{Content: "answer"}}
	ctrl, store := newTestController(model, tr)

	ctrl.HandleText(context.Background(), 1, 1, "hello")
	sess, _ := store.Get(1)
	require.Len(t, sess.History, 3)

	assert.Contains(t, ctrl.ClearHistory(1), "cleared")
	sess, _ = store.Get(1)
	assert.Len(t, sess.History, 1)
	assert.Equal(t, domain.RoleSystem, sess.History[0].Role)

	assert.Contains(t, ctrl.ClearHistory(1), "already")
	sess, _ = store.Get(1)
	assert.Len(t, sess.History, 1)
}

func TestProviderErrorKeepsUserTurn(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{compErr: &domain.ProviderError{Err: errors.New("quota")}}
	ctrl, store := newTestController(model, tr)

	ctrl.HandleText(context.Background(), 1, 1, "hello")

	sess, _ := store.Get(1)
	require.Len(t, sess.History, 2)
	assert.Equal(t, domain.RoleUser, sess.History[1].Role)
	require.Len(t, tr.sends, 1)
	assert.Contains(t, tr.sends[0], "❌")
}

func TestStreamedAnswer(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{frags: []domain.Fragment{
		{DeltaContent: "Hi"},
		{DeltaContent: ""},
		{DeltaContent: " there"},
		{FinishReason: "stop"},
	}}
	ctrl, store := newTestController(model, tr)

	ctrl.ToggleMode(1)
	ctrl.HandleText(context.Background(), 1, 1, "hello")

	sess, _ := store.Get(1)
	require.Len(t, sess.History, 3)
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "Hi there"}, sess.History[2])
	assert.Equal(t, []string{"Hi"}, tr.sends)
	assert.Equal(t, []string{"Hi there"}, tr.edits)
}

func TestStreamedEmptyGenerationReportedDistinctly(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{frags: []domain.Fragment{
		{DeltaContent: ""},
		{FinishReason: "stop"},
	}}
	ctrl, store := newTestController(model, tr)

	ctrl.ToggleMode(1)
	ctrl.HandleText(context.Background(), 1, 1, "hello")

	sess, _ := store.Get(1)
	// User turn recorded, no assistant turn.
	require.Len(t, sess.History, 2)
	assert.Equal(t, domain.RoleUser, sess.History[1].Role)
	require.Len(t, tr.sends, 1)
	assert.Contains(t, tr.sends[0], "no content")
	assert.Empty(t, tr.edits)
}

func TestSecondMessageWhileBusyIsRejected(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{
		comp:         &domain.Completion{Content: "slow answer"},
		blockStarted: make(chan struct{}),
		blockRelease: make(chan struct{}),
	}
	ctrl, store := newTestController(model, tr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.HandleText(context.Background(), 1, 1, "first")
	}()

	select {
	case <-model.blockStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("model was never called")
	}

	ctrl.HandleText(context.Background(), 1, 1, "second")
	sends := tr.allSends()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0], "previous request")

	close(model.blockRelease)
	<-done

	// Only the first message produced a generation.
	sess, _ := store.Get(1)
	require.Len(t, sess.History, 3)
	assert.Equal(t, "first", sess.History[1].Content)
	assert.Equal(t, 1, model.calls())
}

func TestCommandTextIgnoredByDispatch(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{comp: &domain.Completion{Content: "x"}}
	ctrl, _ := newTestController(model, tr)

	ctrl.HandleText(context.Background(), 1, 1, "/unknowncommand")

	assert.Zero(t, model.calls())
	assert.Empty(t, tr.sends)
}

func TestInlineAnswerTouchesNoSession(t *testing.T) {
	tr := &fakeTransport{}
	model := &fakeModel{comp: &domain.Completion{Content: "42", TotalTokens: 3}}
	ctrl, store := newTestController(model, tr)

	answer, err := ctrl.InlineAnswer(context.Background(), "what is the answer?")
	require.NoError(t, err)
	assert.Contains(t, answer, "what is the answer?")
	assert.Contains(t, answer, "42")
	assert.Zero(t, store.Len())
}
