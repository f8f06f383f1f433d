package engine_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"textloom/internal/engine"
	"textloom/internal/filterchain"
	"textloom/internal/grid"
	"textloom/internal/logging"
	"textloom/internal/plan"
	"textloom/internal/prompt"
	"textloom/internal/services"
	"textloom/internal/services/textgen"
	"textloom/internal/session"
	"textloom/internal/testsupport"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newEngine(store session.Store, gen engine.Generator, opts ...engine.Option) *engine.Engine {
	base := []engine.Option{engine.WithSleep(noSleep), engine.WithBatchDelay(0)}
	return engine.New(store, gen, logging.NewNop(), append(base, opts...)...)
}

func gridInputs() plan.GridInputs {
	return plan.GridInputs{
		Original:   "the original text",
		AdjectiveX: "formal",
		AdjectiveY: "funny",
		Model:      textgen.ModelBalanced,
	}
}

func providerErr(msg string) error {
	return services.Wrap(services.ErrProvider, "test", "generate", msg, nil)
}

func TestRunCompletesSingleTask(t *testing.T) {
	store := session.NewMemoryStore()
	fake := &testsupport.FakeGenerator{}
	eng := newEngine(store, fake)

	p, err := plan.GridOnDemand(gridInputs(), grid.Coordinate{X: 1, Y: -2}, false, nil, 2)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	result, err := eng.Run(context.Background(), session.NamespaceGrid, "run-1", engine.NoGuard(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	text, ok, _ := store.Entry(context.Background(), session.NamespaceGrid, "1,-2")
	if !ok || text == "" {
		t.Fatal("result not written through to cache")
	}
	state, _ := store.TaskState(context.Background(), session.NamespaceGrid, "1,-2")
	if state.Status != session.StatusComplete {
		t.Fatalf("task state %s, want complete", state.Status)
	}
}

func TestRetryExhaustionMarksTaskError(t *testing.T) {
	store := session.NewMemoryStore()
	fake := &testsupport.FakeGenerator{
		Respond: func(testsupport.GeneratorCall) (textgen.Result, error) {
			return textgen.Result{}, providerErr("upstream 500")
		},
	}
	eng := newEngine(store, fake)

	p, _ := plan.GridOnDemand(gridInputs(), grid.Coordinate{X: 0, Y: 0}, false, nil, 2)
	result, err := eng.Run(context.Background(), session.NamespaceGrid, "run-1", engine.NoGuard(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.CallCount() != 3 {
		t.Fatalf("attempted %d times, want 3", fake.CallCount())
	}
	if result.Failed != 1 || result.Completed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if msg := result.Errors["0,0"]; !strings.Contains(msg, "upstream 500") {
		t.Fatalf("error message %q missing cause", msg)
	}
	state, _ := store.TaskState(context.Background(), session.NamespaceGrid, "0,0")
	if state.Status != session.StatusError || state.ErrorMessage == "" {
		t.Fatalf("unexpected state %+v", state)
	}
	if _, ok, _ := store.Entry(context.Background(), session.NamespaceGrid, "0,0"); ok {
		t.Fatal("failed task must not write a cache entry")
	}
}

func TestTerminalErrorsAreNotRetried(t *testing.T) {
	for _, marker := range []error{services.ErrSafetyBlocked, services.ErrTokenLimit} {
		store := session.NewMemoryStore()
		fake := &testsupport.FakeGenerator{
			Respond: func(testsupport.GeneratorCall) (textgen.Result, error) {
				return textgen.Result{}, services.Wrap(marker, "test", "generate", "no retry", nil)
			},
		}
		eng := newEngine(store, fake)

		p, _ := plan.GridOnDemand(gridInputs(), grid.Coordinate{X: 0, Y: 0}, false, nil, 2)
		result, err := eng.Run(context.Background(), session.NamespaceGrid, "run-1", engine.NoGuard(), p)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if fake.CallCount() != 1 {
			t.Fatalf("%v: attempted %d times, want 1", marker, fake.CallCount())
		}
		if result.Failed != 1 {
			t.Fatalf("%v: unexpected result %+v", marker, result)
		}
	}
}

func TestFailedTaskDoesNotBlockSiblings(t *testing.T) {
	store := session.NewMemoryStore()
	inputs := gridInputs()
	failing := prompt.Grid(inputs.Original, inputs.AdjectiveX, inputs.AdjectiveY, grid.Coordinate{X: 1, Y: 0})
	fake := &testsupport.FakeGenerator{
		Respond: func(call testsupport.GeneratorCall) (textgen.Result, error) {
			if call.UserPrompt == failing {
				return textgen.Result{}, providerErr("always down")
			}
			return textgen.Result{Text: "ok"}, nil
		},
	}
	eng := newEngine(store, fake)

	cached := map[string]bool{}
	// Plan ring 1 only by marking ring 0 and rings 2-5 cached.
	for ring := 0; ring <= grid.MaxRing; ring++ {
		if ring == 1 {
			continue
		}
		coords, _ := grid.RingCoordinates(ring)
		for _, c := range coords {
			cached[c.Key()] = true
		}
	}
	p := plan.Grid(inputs, cached, 2)
	result, err := eng.Run(context.Background(), session.NamespaceGrid, "run-1", engine.NoGuard(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Failed != 1 || result.Completed != 7 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCachedKeySkippedWithoutCall(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	_ = store.PutEntry(ctx, session.NamespaceGrid, "2,2", "already here")
	fake := &testsupport.FakeGenerator{}
	eng := newEngine(store, fake)

	// The plan was built before the entry existed, so the key is planned.
	p, _ := plan.GridOnDemand(gridInputs(), grid.Coordinate{X: 2, Y: 2}, false, nil, 2)
	result, err := eng.Run(ctx, session.NamespaceGrid, "run-1", engine.NoGuard(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("cached key still generated %d calls", fake.CallCount())
	}
	if result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestBridgeRunBindsDependencyTexts(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	_ = store.PutEntry(ctx, session.NamespaceBridge, "0", "left anchor text")
	_ = store.PutEntry(ctx, session.NamespaceBridge, "10", "right anchor text")

	fake := &testsupport.FakeGenerator{
		Respond: func(call testsupport.GeneratorCall) (textgen.Result, error) {
			return textgen.Result{Text: "blend of [" + call.UserPrompt[:20] + "]"}, nil
		},
	}
	eng := newEngine(store, fake)

	p := plan.Bridge(plan.BridgeInputs{Model: textgen.ModelBalanced}, nil)
	result, err := eng.Run(ctx, session.NamespaceBridge, "run-1", engine.NoGuard(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed != 9 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	for _, key := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"} {
		if _, ok, _ := store.Entry(ctx, session.NamespaceBridge, key); !ok {
			t.Errorf("position %s not cached", key)
		}
	}
	// Round 2 prompts must contain the generated midpoint, which only
	// exists because round 1 wrote through before round 2 dispatched.
	midpoint, _, _ := store.Entry(ctx, session.NamespaceBridge, "5")
	found := false
	for _, call := range fake.Calls() {
		if strings.Contains(call.UserPrompt, midpoint) {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("no downstream prompt used the midpoint text")
	}
}

func TestBridgeFailureSkipsDependents(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	_ = store.PutEntry(ctx, session.NamespaceBridge, "0", "left")
	_ = store.PutEntry(ctx, session.NamespaceBridge, "10", "right")

	count := 0
	var mu sync.Mutex
	fake := &testsupport.FakeGenerator{
		Respond: func(testsupport.GeneratorCall) (textgen.Result, error) {
			mu.Lock()
			defer mu.Unlock()
			count++
			if count <= 3 {
				// The midpoint (three attempts) fails; everything else works.
				return textgen.Result{}, providerErr("midpoint down")
			}
			return textgen.Result{Text: "ok"}, nil
		},
	}
	eng := newEngine(store, fake)

	p := plan.Bridge(plan.BridgeInputs{Model: textgen.ModelBalanced}, nil)
	result, err := eng.Run(ctx, session.NamespaceBridge, "run-1", engine.NoGuard(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Every derived position depends on the midpoint transitively, so
	// its failure cascades to all eight dependents.
	if result.Failed != 9 {
		t.Fatalf("expected the whole bridge to fail, got %+v", result)
	}
	state, _ := store.TaskState(ctx, session.NamespaceBridge, "2")
	if state.Status != session.StatusError {
		t.Fatalf("dependent state %s, want error", state.Status)
	}
}

func TestFilterChainHaltsAboveFailedStep(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()
	_ = store.PutEntry(ctx, session.NamespaceFilters, "original", "plain text")

	fake := &testsupport.FakeGenerator{
		Respond: func(testsupport.GeneratorCall) (textgen.Result, error) {
			return textgen.Result{}, providerErr("boom")
		},
	}
	eng := newEngine(store, fake)

	layers := []filterchain.Layer{
		{Filter: filterchain.FilterHumor, Enabled: true, Intensity: 75},
		{Filter: filterchain.FilterSimplify, Enabled: true, Intensity: 50},
	}
	p, err := plan.Filters(layers, textgen.ModelBalanced, filterchain.Snapshot{"original": "plain text"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	result, err := eng.Run(ctx, session.NamespaceFilters, "run-1", engine.NoGuard(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Only the bottom step runs (three attempts); the top step is never
	// dispatched.
	if fake.CallCount() != 3 {
		t.Fatalf("attempted %d calls, want 3", fake.CallCount())
	}
	if result.Failed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, ok := result.Errors["simplify-50"]; !ok {
		t.Fatalf("failure point not reported: %v", result.Errors)
	}
}

func TestSupersededRunDiscardsLateResult(t *testing.T) {
	store := session.NewMemoryStore()
	guard := &engine.TokenGuard{}
	runID := guard.Begin()

	fake := &testsupport.FakeGenerator{
		Respond: func(call testsupport.GeneratorCall) (textgen.Result, error) {
			// A newer plan supersedes the run while this call is in flight.
			guard.Begin()
			return textgen.Result{Text: "late result"}, nil
		},
	}
	eng := newEngine(store, fake)

	p, _ := plan.GridOnDemand(gridInputs(), grid.Coordinate{X: 3, Y: 3}, false, nil, 2)
	result, err := eng.Run(context.Background(), session.NamespaceGrid, runID, guard, p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Discarded != 1 || result.Completed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, ok, _ := store.Entry(context.Background(), session.NamespaceGrid, "3,3"); ok {
		t.Fatal("late result written despite supersession")
	}
}

func TestCancelledGuardSkipsRemainingBatches(t *testing.T) {
	store := session.NewMemoryStore()
	guard := &engine.TokenGuard{}
	guard.Begin()
	guard.Cancel()

	fake := &testsupport.FakeGenerator{}
	eng := newEngine(store, fake)

	p := plan.Grid(gridInputs(), nil, 2)
	result, err := eng.Run(context.Background(), session.NamespaceGrid, "stale-run", guard, p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("cancelled run still made %d calls", fake.CallCount())
	}
	if result.Discarded != 121 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestConcurrencyBoundedByPlanLimit(t *testing.T) {
	store := session.NewMemoryStore()
	fake := &testsupport.FakeGenerator{
		Respond: func(call testsupport.GeneratorCall) (textgen.Result, error) {
			time.Sleep(5 * time.Millisecond)
			return textgen.Result{Text: "ok"}, nil
		},
	}
	eng := newEngine(store, fake)

	p := plan.Grid(gridInputs(), nil, 2)
	if _, err := eng.Run(context.Background(), session.NamespaceGrid, "run-1", engine.NoGuard(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if peak := fake.PeakConcurrency(); peak > 2 {
		t.Fatalf("peak concurrency %d exceeds limit 2", peak)
	}
}

func TestBackoffGrowsFromModelBase(t *testing.T) {
	store := session.NewMemoryStore()
	var mu sync.Mutex
	var delays []time.Duration
	recorder := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return nil
	}
	fake := &testsupport.FakeGenerator{
		Respond: func(testsupport.GeneratorCall) (textgen.Result, error) {
			return textgen.Result{}, providerErr("flaky")
		},
	}
	eng := engine.New(store, fake, logging.NewNop(),
		engine.WithSleep(recorder), engine.WithBatchDelay(0))

	inputs := gridInputs()
	inputs.Model = textgen.ModelDeep
	p, _ := plan.GridOnDemand(inputs, grid.Coordinate{X: 0, Y: 1}, false, nil, 2)
	if _, err := eng.Run(context.Background(), session.NamespaceGrid, "run-1", engine.NoGuard(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	base := textgen.ModelDeep.BackoffBase(false)
	want := []time.Duration{base, 2 * base}
	if len(delays) != len(want) {
		t.Fatalf("recorded delays %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("recorded delays %v, want %v", delays, want)
		}
	}
}

func TestContextCancellationStopsRun(t *testing.T) {
	store := session.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &testsupport.FakeGenerator{}
	eng := newEngine(store, fake)

	p := plan.Grid(gridInputs(), nil, 2)
	if _, err := eng.Run(ctx, session.NamespaceGrid, "run-1", engine.NoGuard(), p); err == nil {
		t.Fatal("expected context error")
	}
	if fake.CallCount() != 0 {
		t.Fatalf("cancelled context still made %d calls", fake.CallCount())
	}
}
