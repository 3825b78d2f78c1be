package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stencil/pkg/compiler"
	"github.com/aretw0/stencil/pkg/domain"
	"github.com/aretw0/stencil/pkg/inject"
)

// fakeClient scripts the backend behavior per combination key. The orchestrator
// only sees prompt ids, so keys are recovered from the submitted save prefix.
type fakeClient struct {
	submits     int
	failSubmit  map[string]error
	outcome     map[string]domain.JobOutcome
	lastJobs    map[string]domain.JobGraph
	pollCalls   int
	uploads     []string
	downloaded  int
	artifactErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		failSubmit: map[string]error{},
		outcome:    map[string]domain.JobOutcome{},
		lastJobs:   map[string]domain.JobGraph{},
	}
}

// keyOf digs the combination key back out of the compiled save node.
func keyOf(job domain.JobGraph) string {
	for _, node := range job {
		if node.ClassType == domain.KindSave {
			prefix, _ := node.Inputs["filename_prefix"].(string)
			return prefix[len(domain.ArtifactPrefix):]
		}
	}
	return ""
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Submit(ctx context.Context, job domain.JobGraph) (string, error) {
	key := keyOf(job)
	if err := f.failSubmit[key]; err != nil {
		return "", err
	}
	f.submits++
	f.lastJobs[key] = job
	return "prompt-" + key, nil
}

func (f *fakeClient) Poll(ctx context.Context, promptID string, timeout, interval time.Duration) (domain.JobOutcome, error) {
	f.pollCalls++
	key := promptID[len("prompt-"):]
	if outcome, ok := f.outcome[key]; ok {
		return outcome, nil
	}
	return domain.JobCompleted, nil
}

func (f *fakeClient) FetchArtifacts(ctx context.Context, promptID string) (map[string][]domain.ArtifactDescriptor, error) {
	if f.artifactErr != nil {
		return nil, f.artifactErr
	}
	key := promptID[len("prompt-"):]
	return map[string][]domain.ArtifactDescriptor{
		"9": {{Filename: domain.ArtifactPrefix + key + "_00001_.png"}},
	}, nil
}

func (f *fakeClient) Download(ctx context.Context, desc domain.ArtifactDescriptor) ([]byte, error) {
	f.downloaded++
	return []byte("png-bytes"), nil
}

func (f *fakeClient) Upload(ctx context.Context, filename string, data []byte) error {
	f.uploads = append(f.uploads, filename)
	return nil
}

// fakePrompts serves the same pair for every key it knows.
type fakePrompts struct {
	keys []string
}

func (p *fakePrompts) Get(key string) (domain.PromptPair, error) {
	for _, k := range p.keys {
		if k == key {
			return domain.PromptPair{Prompt: "a creature", NegativePrompt: "blurry"}, nil
		}
	}
	return domain.PromptPair{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, key)
}

func (p *fakePrompts) Keys() ([]string, error) { return p.keys, nil }

// memStore keeps artifacts in a map.
type memStore struct {
	saved map[string][]byte
}

func newMemStore() *memStore { return &memStore{saved: map[string][]byte{}} }

func (s *memStore) Exists(key string) bool { _, ok := s.saved[key]; return ok }
func (s *memStore) Save(key string, data []byte) error {
	s.saved[key] = data
	return nil
}
func (s *memStore) Path(key string) string { return key }

// memJournal records outcomes in memory.
type memJournal struct {
	entries map[string]bool
	reasons map[string]string
}

func newMemJournal() *memJournal {
	return &memJournal{entries: map[string]bool{}, reasons: map[string]string{}}
}

func (j *memJournal) Record(ctx context.Context, key string, ok bool, reason string) error {
	j.entries[key] = ok
	j.reasons[key] = reason
	return nil
}

func (j *memJournal) Summary(ctx context.Context) (map[string]bool, error) {
	return j.entries, nil
}

type countingMetrics struct {
	skipped, submitted, completed, failed int
}

func (m *countingMetrics) JobSkipped()   { m.skipped++ }
func (m *countingMetrics) JobSubmitted() { m.submitted++ }
func (m *countingMetrics) JobCompleted() { m.completed++ }
func (m *countingMetrics) JobFailed()    { m.failed++ }

type emptyCatalog struct{}

func (emptyCatalog) ReferenceImages(string) []string    { return nil }
func (emptyCatalog) SubjectImage(string) (string, bool) { return "", false }

func testTemplate() *domain.VisualGraph {
	return &domain.VisualGraph{Nodes: []domain.NodeRecord{
		{ID: 1, Type: domain.KindTextEncode, Widgets: []any{"placeholder"}},
		{ID: 9, Type: domain.KindSave, Widgets: []any{"output"}},
	}}
}

func newTestOrchestrator(client *fakeClient, prompts *fakePrompts, store *memStore, opts ...Option) *Orchestrator {
	injector := inject.New(emptyCatalog{})
	opts = append([]Option{WithPacing(0)}, opts...)
	return New(injector, compiler.New(), client, prompts, store, opts...)
}

func TestGenerateAllHappyPath(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_3", "2_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(), []string{"1_3", "2_3"}, RunOptions{})

	assert.Equal(t, map[string]bool{"1_3": true, "2_3": true}, results)
	assert.Equal(t, 2, client.submits)
	assert.True(t, store.Exists("1_3"))
	assert.True(t, store.Exists("2_3"))
}

func TestGenerateAllSecondRunSubmitsNothing(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_3", "2_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)
	keys := []string{"1_3", "2_3"}

	o.GenerateAll(context.Background(), testTemplate(), keys, RunOptions{})
	require.Equal(t, 2, client.submits)

	results := o.GenerateAll(context.Background(), testTemplate(), keys, RunOptions{})

	assert.Equal(t, map[string]bool{"1_3": true, "2_3": true}, results)
	assert.Equal(t, 2, client.submits, "existing artifacts must short-circuit")
}

func TestGenerateAllIsolatesFailures(t *testing.T) {
	client := newFakeClient()
	client.failSubmit["2_3"] = errors.New("connection refused")
	prompts := &fakePrompts{keys: []string{"1_3", "2_3", "3_3"}}
	store := newMemStore()
	journal := newMemJournal()
	o := newTestOrchestrator(client, prompts, store, WithJournal(journal))

	results := o.GenerateAll(context.Background(), testTemplate(),
		[]string{"1_3", "2_3", "3_3"}, RunOptions{})

	assert.Equal(t, map[string]bool{"1_3": true, "2_3": false, "3_3": true}, results)
	assert.False(t, store.Exists("2_3"))
	assert.True(t, store.Exists("3_3"), "later combinations still run")
	assert.Contains(t, journal.reasons["2_3"], "connection refused")
}

func TestGenerateAllBackendErrorOutcome(t *testing.T) {
	client := newFakeClient()
	client.outcome["1_3"] = domain.JobErrored
	prompts := &fakePrompts{keys: []string{"1_3"}}
	store := newMemStore()
	journal := newMemJournal()
	o := newTestOrchestrator(client, prompts, store, WithJournal(journal))

	results := o.GenerateAll(context.Background(), testTemplate(), []string{"1_3"}, RunOptions{})

	assert.False(t, results["1_3"])
	assert.False(t, store.Exists("1_3"))
	assert.Equal(t, 0, client.downloaded)
}

func TestGenerateAllTimeoutOutcome(t *testing.T) {
	client := newFakeClient()
	client.outcome["1_3"] = domain.JobTimedOut
	prompts := &fakePrompts{keys: []string{"1_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(), []string{"1_3"}, RunOptions{})

	assert.False(t, results["1_3"])
	assert.False(t, store.Exists("1_3"))
}

func TestGenerateAllLimit(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_1", "1_2", "1_3", "1_4", "1_5"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(), prompts.keys, RunOptions{Limit: 3})

	assert.Len(t, results, 3)
	assert.Equal(t, 3, client.submits)
	assert.Contains(t, results, "1_1")
	assert.NotContains(t, results, "1_4")
}

func TestGenerateAllStartFrom(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_1", "1_2", "1_3", "1_4"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(), prompts.keys, RunOptions{StartFrom: "1_3"})

	assert.Equal(t, map[string]bool{"1_3": true, "1_4": true}, results)
}

func TestGenerateAllStartFromNoMatchRunsAll(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_1", "1_2"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(), prompts.keys, RunOptions{StartFrom: "zzz"})

	assert.Len(t, results, 2)
}

func TestGenerateAllUnknownKeyFailsThatKeyOnly(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(),
		[]string{"9_9", "1_3"}, RunOptions{})

	assert.False(t, results["9_9"])
	assert.True(t, results["1_3"])
	assert.Equal(t, 1, client.submits)
}

func TestGenerateAllMalformedKey(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"nounderscore"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(),
		[]string{"nounderscore"}, RunOptions{})

	assert.False(t, results["nounderscore"])
	assert.Equal(t, 0, client.submits)
}

func TestGenerateAllCancellation(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_1", "1_2", "1_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.GenerateAll(ctx, testTemplate(), prompts.keys, RunOptions{})

	assert.Empty(t, results)
	assert.Equal(t, 0, client.submits)
}

func TestGenerateAllNoArtifacts(t *testing.T) {
	client := newFakeClient()
	client.artifactErr = domain.ErrJobNotFound
	prompts := &fakePrompts{keys: []string{"1_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	results := o.GenerateAll(context.Background(), testTemplate(), []string{"1_3"}, RunOptions{})

	assert.False(t, results["1_3"])
}

func TestGenerateAllMetrics(t *testing.T) {
	client := newFakeClient()
	client.failSubmit["2_3"] = errors.New("boom")
	prompts := &fakePrompts{keys: []string{"1_3", "2_3", "3_3"}}
	store := newMemStore()
	store.saved["3_3"] = []byte("already there")
	metrics := &countingMetrics{}
	o := newTestOrchestrator(client, prompts, store, WithMetrics(metrics))

	o.GenerateAll(context.Background(), testTemplate(),
		[]string{"1_3", "2_3", "3_3"}, RunOptions{})

	assert.Equal(t, 1, metrics.skipped)
	assert.Equal(t, 1, metrics.submitted)
	assert.Equal(t, 1, metrics.completed)
	assert.Equal(t, 1, metrics.failed)
}

func TestGenerateAllInjectsFreshParameters(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	o.GenerateAll(context.Background(), testTemplate(), []string{"1_3"}, RunOptions{})

	job := client.lastJobs["1_3"]
	require.NotNil(t, job)
	assert.Equal(t, "a creature", job["1"].Inputs["text"])
	assert.Equal(t, "monster_1_3", job["9"].Inputs["filename_prefix"])
}

func TestGenerateOne(t *testing.T) {
	client := newFakeClient()
	prompts := &fakePrompts{keys: []string{"1_3"}}
	store := newMemStore()
	o := newTestOrchestrator(client, prompts, store)

	ok := o.GenerateOne(context.Background(), testTemplate(), "1_3")

	assert.True(t, ok)
	assert.True(t, store.Exists("1_3"))
}
