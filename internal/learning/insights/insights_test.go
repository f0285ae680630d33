package insights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/codepath-backend/internal/inference/engine"
	"github.com/yungbote/codepath-backend/internal/inference/engine/mock"
	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

func TestNormalize_Clamps(t *testing.T) {
	v, err := jsonvalue.ParseString(`{"strongPoints":["a",1,"b"," ","c","d"],"skillsToStrengthen":"loops","summary":"  ok  "}`)
	require.NoError(t, err)
	got := Normalize(v)
	assert.Equal(t, []string{"a", "b", "c"}, got.StrongPoints)
	assert.Equal(t, []string{}, got.SkillsToStrengthen)
	assert.Equal(t, "ok", got.Summary)
}

func TestNormalize_NeverMoreThanThree(t *testing.T) {
	for _, raw := range []string{`{}`, `[]`, `null`, `{"strongPoints":null}`, `{"strongPoints":["1","2","3","4","5"],"skillsToStrengthen":["x","y","z","w"]}`} {
		v, err := jsonvalue.ParseString(raw)
		require.NoError(t, err)
		got := Normalize(v)
		assert.LessOrEqual(t, len(got.StrongPoints), MaxItems, raw)
		assert.LessOrEqual(t, len(got.SkillsToStrengthen), MaxItems, raw)
		assert.NotNil(t, got.StrongPoints)
		assert.NotNil(t, got.SkillsToStrengthen)
	}
}

type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	readErr error
	sets    int
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mapStore) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func newService(eng engine.Engine, store Store) *Service {
	r := router.FromRoutes(router.Route{PublicModel: "mock-1", EngineType: "mock", Engine: eng})
	return NewService(gateway.New(r, nil, nil, gateway.Options{}), store, time.Hour, nil, nil)
}

func TestService_StalenessPolicy(t *testing.T) {
	eng := mock.New()
	store := &mapStore{}
	svc := newService(eng, store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := svc.Get(ctx, "learner-1", Request{Progress: Progress{CompletedExercises: 4, RecentTopics: []string{"maps"}}})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, []string{"Loops", "Slices"}, first.Insights.StrongPoints)
	assert.Equal(t, now, first.GeneratedAt)
	assert.Len(t, eng.Calls(), 1)
	assert.Contains(t, eng.Calls()[0].Messages[1].Content, "Recent topics: maps")

	now = now.Add(59 * time.Minute)
	second, err := svc.Get(ctx, "learner-1", Request{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Insights, second.Insights)
	assert.Len(t, eng.Calls(), 1)

	_, err = svc.Get(ctx, "learner-1", Request{Force: true})
	require.NoError(t, err)
	assert.Len(t, eng.Calls(), 2)

	now = now.Add(2 * time.Hour)
	third, err := svc.Get(ctx, "learner-1", Request{})
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, eng.Calls(), 3)

	_, err = svc.Get(ctx, "learner-2", Request{})
	require.NoError(t, err)
	assert.Len(t, eng.Calls(), 4)
	assert.Equal(t, 4, store.sets)
}

func TestService_CacheFailureBypassed(t *testing.T) {
	eng := mock.New()
	svc := newService(eng, &mapStore{readErr: errors.New("redis down")})
	for i := 0; i < 2; i++ {
		snap, err := svc.Get(context.Background(), "learner-1", Request{})
		require.NoError(t, err)
		assert.False(t, snap.Cached)
	}
	assert.Len(t, eng.Calls(), 2)
}

func TestService_CorruptEntryRegenerates(t *testing.T) {
	eng := mock.New()
	store := &mapStore{data: map[string][]byte{cacheKey("learner-1"): []byte("{")}}
	snap, err := newService(eng, store).Get(context.Background(), "learner-1", Request{})
	require.NoError(t, err)
	assert.False(t, snap.Cached)
	assert.Len(t, eng.Calls(), 1)
}

func TestService_NoStoreAlwaysGenerates(t *testing.T) {
	eng := mock.New()
	svc := newService(eng, nil)
	_, err := svc.Get(context.Background(), "learner-1", Request{})
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), "learner-1", Request{})
	require.NoError(t, err)
	assert.Len(t, eng.Calls(), 2)
}

func TestService_RequiresLearner(t *testing.T) {
	_, err := newService(mock.New(), nil).Get(context.Background(), "  ", Request{})
	assert.ErrorIs(t, err, ErrLearnerRequired)
}

func TestService_ErrorsNotCached(t *testing.T) {
	eng := mock.New().Script("no json here")
	store := &mapStore{}
	_, err := newService(eng, store).Get(context.Background(), "learner-1", Request{})
	require.Error(t, err)
	assert.Equal(t, 0, store.sets)
}

type gatedEngine struct {
	calls   atomic.Int32
	release chan struct{}
}

func (e *gatedEngine) GenerateText(ctx context.Context, _ string, _ []engine.Message, _ engine.GenerateOptions) (string, error) {
	e.calls.Add(1)
	select {
	case <-e.release:
		return `{"strongPoints":["Recursion"],"skillsToStrengthen":[]}`, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestService_ConcurrentRefreshesCollapse(t *testing.T) {
	eng := &gatedEngine{release: make(chan struct{})}
	svc := newService(eng, &mapStore{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]Snapshot, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Get(context.Background(), "learner-1", Request{Force: true})
		}(i)
	}

	require.Eventually(t, func() bool { return eng.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(eng.release)
	wg.Wait()

	assert.Equal(t, int32(1), eng.calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "Recursion", strings.Join(results[i].Insights.StrongPoints, ","))
	}
}

func TestService_CancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	eng := &gatedEngine{release: make(chan struct{})}
	store := &mapStore{}
	svc := newService(eng, store)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Get(ctxA, "learner-1", Request{Force: true})
		errA <- err
	}()
	require.Eventually(t, func() bool { return eng.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		snap Snapshot
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		snap, err := svc.Get(context.Background(), "learner-1", Request{Force: true})
		resB <- result{snap: snap, err: err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
		var backendErr *gateway.CompletionBackendError
		assert.ErrorAs(t, err, &backendErr)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(eng.release)
	select {
	case got := <-resB:
		require.NoError(t, got.err)
		assert.Equal(t, []string{"Recursion"}, got.snap.Insights.StrongPoints)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
	assert.Equal(t, int32(1), eng.calls.Load())
	assert.Equal(t, 1, store.setCount())
}

func TestService_DifferentProgressIsNotShared(t *testing.T) {
	eng := &gatedEngine{release: make(chan struct{})}
	svc := newService(eng, &mapStore{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Get(context.Background(), "learner-1", Request{Force: true, Progress: Progress{CompletedExercises: i + 1}})
		}(i)
	}
	require.Eventually(t, func() bool { return eng.calls.Load() == 2 }, time.Second, time.Millisecond)
	close(eng.release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), eng.calls.Load())
}

func TestService_SharedRefreshIsBounded(t *testing.T) {
	eng := &gatedEngine{release: make(chan struct{})}
	svc := newService(eng, &mapStore{})
	svc.refreshTimeout = 30 * time.Millisecond

	_, err := svc.Get(context.Background(), "learner-1", Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var backendErr *gateway.CompletionBackendError
	assert.ErrorAs(t, err, &backendErr)
}

func TestFlightKey(t *testing.T) {
	base := flightKey("learner-1", "mock-1", "progress a")
	assert.Equal(t, base, flightKey("learner-1", " mock-1 ", "progress a"))
	assert.NotEqual(t, base, flightKey("learner-2", "mock-1", "progress a"))
	assert.NotEqual(t, base, flightKey("learner-1", "other", "progress a"))
	assert.NotEqual(t, base, flightKey("learner-1", "mock-1", "progress b"))
}
