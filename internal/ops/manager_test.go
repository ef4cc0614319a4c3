package ops

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
	"github.com/moestate/newsdesk/internal/metrics"
)

const briefContent = `# Weekly Market Report: Retail Properties

This week's report covers 3 key transactions across 1 property category.

## Retail Properties

**Sale**: 789 Commerce Blvd sold for $3,200,000.

## Market Summary

The market shows 1 sale.
`

func validForm() digest.Form {
	return digest.Form{
		Title:        "Weekly Market Report: Retail Properties",
		Content:      briefContent,
		PropertyType: digest.PropertyRetail,
		TimeSpan:     digest.TimeSpanWeekly,
		Articles: []digest.Article{{
			ID: "sale-0", Title: "789 Commerce Blvd - Sale", Source: "Public Sales Records",
			URL: "#sale-PAR-2024-002", PublishedAt: "2024-01-12", Excerpt: "Sold for $3,200,000", Type: digest.ArticleSale,
		}},
	}
}

func stringPtr(s string) *string { return &s }

// fixedClock returns a clock stuck at t, for timestamp collision tests.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// recordingMirror records mirror calls and can be told to fail.
type recordingMirror struct {
	mu      sync.Mutex
	enabled bool
	fail    error
	calls   []string
	last    *digest.Digest
}

func (r *recordingMirror) Enabled() bool { return r.enabled }

func (r *recordingMirror) record(call string, d *digest.Digest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if d != nil {
		r.last = d.Clone()
	}
	return r.fail
}

func (r *recordingMirror) Save(_ context.Context, d *digest.Digest) error {
	return r.record("save:"+d.ID, d)
}

func (r *recordingMirror) Replace(_ context.Context, d *digest.Digest) error {
	return r.record("replace:"+d.ID, d)
}

func (r *recordingMirror) Delete(_ context.Context, id string) error {
	return r.record("delete:"+id, nil)
}

func TestCreate_RoundTrip(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, validForm())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(created.ID) != 26 {
		t.Errorf("ID = %q, want 26-char ULID", created.ID)
	}
	if created.CreatedAt == "" || created.CreatedAt != created.UpdatedAt {
		t.Errorf("timestamps = (%q, %q), want equal and set", created.CreatedAt, created.UpdatedAt)
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for created digest")
	}
	if diff := cmp.Diff(validForm(), got.Form()); diff != "" {
		t.Errorf("stored form mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_IDsAreUnique(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		d, err := m.Create(context.Background(), validForm())
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		if seen[d.ID] {
			t.Fatalf("duplicate id %q", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestCreate_ValidationError(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil, nil, nil)

	f := validForm()
	f.Title = ""
	f.PropertyType = "warehouse"

	_, err := m.Create(context.Background(), f)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("err = %v, want INVALID_REQUEST", err)
	}
	details := errors.As(err).Details
	if details["title"] != "Title is required" {
		t.Errorf("details[title] = %v", details["title"])
	}
	if _, ok := details["propertyType"]; !ok {
		t.Errorf("details missing propertyType: %v", details)
	}

	list, _ := store.Load(context.Background())
	if len(list) != 0 {
		t.Errorf("store has %d digests after failed create, want 0", len(list))
	}
}

func TestUpdate_RefreshesUpdatedAtStrictly(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	m.now = fixedClock(at)
	ctx := context.Background()

	d, err := m.Create(ctx, validForm())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := m.Update(ctx, d.ID, digest.Patch{Title: stringPtr("Renamed")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", updated.Title)
	}
	if updated.CreatedAt != d.CreatedAt {
		t.Errorf("CreatedAt changed: %q -> %q", d.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt != "2024-03-01T12:00:00.001Z" {
		t.Errorf("UpdatedAt = %q, want one millisecond after creation", updated.UpdatedAt)
	}

	again, err := m.Update(ctx, d.ID, digest.Patch{})
	if err != nil {
		t.Fatalf("empty Update failed: %v", err)
	}
	if !(again.UpdatedAt > updated.UpdatedAt) {
		t.Errorf("UpdatedAt %q not after %q", again.UpdatedAt, updated.UpdatedAt)
	}
	if again.Title != "Renamed" {
		t.Errorf("empty patch changed title to %q", again.Title)
	}
}

func TestUpdate_ReflectsEveryPatchedField(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	ctx := context.Background()
	d, _ := m.Create(ctx, validForm())

	pt := digest.PropertyIndustrial
	span := digest.TimeSpanCustom
	articles := []digest.Article{}
	p := digest.Patch{
		Title:           stringPtr("New"),
		Content:         stringPtr("## Notes\n\nbody"),
		PropertyType:    &pt,
		TimeSpan:        &span,
		CustomDateRange: &digest.DateRange{Start: "2024-01-01", End: "2024-01-31"},
		Articles:        &articles,
	}
	if _, err := m.Update(ctx, d.ID, p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := m.Get(ctx, d.ID)
	want := digest.Form{
		Title:           "New",
		Content:         "## Notes\n\nbody",
		PropertyType:    digest.PropertyIndustrial,
		TimeSpan:        digest.TimeSpanCustom,
		CustomDateRange: &digest.DateRange{Start: "2024-01-01", End: "2024-01-31"},
	}
	if diff := cmp.Diff(want, got.Form()); diff != "" {
		t.Errorf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_AbsentIDIsNoop(t *testing.T) {
	mirror := &recordingMirror{enabled: true}
	m := NewManager(NewMemoryStore(), mirror, nil, nil)

	d, err := m.Update(context.Background(), "01NOPE", digest.Patch{Title: stringPtr("x")})
	if err != nil || d != nil {
		t.Fatalf("Update(absent) = (%v, %v), want (nil, nil)", d, err)
	}
	if len(mirror.calls) != 0 {
		t.Errorf("mirror calls = %v, want none", mirror.calls)
	}
}

func TestUpdate_InvalidPatchLeavesStoreUntouched(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	ctx := context.Background()
	d, _ := m.Create(ctx, validForm())

	_, err := m.Update(ctx, d.ID, digest.Patch{Title: stringPtr(strings.Repeat("x", digest.MaxTitleChars+1))})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("err = %v, want INVALID_REQUEST", err)
	}

	got, _ := m.Get(ctx, d.ID)
	if got.Title != validForm().Title || got.UpdatedAt != d.UpdatedAt {
		t.Errorf("digest changed after rejected update: %+v", got)
	}
}

func TestUpdate_RequiresID(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	_, err := m.Update(context.Background(), "  ", digest.Patch{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestRemove(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	ctx := context.Background()
	a, _ := m.Create(ctx, validForm())
	b, _ := m.Create(ctx, validForm())

	out, err := m.Remove(ctx, a.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !out.Deleted || out.ID != a.ID {
		t.Errorf("Remove = %+v", out)
	}

	if got, _ := m.Get(ctx, a.ID); got != nil {
		t.Error("removed digest still returned by Get")
	}
	if got, _ := m.Get(ctx, b.ID); got == nil {
		t.Error("other digest lost by Remove")
	}

	out, err = m.Remove(ctx, a.ID)
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if out.Deleted {
		t.Error("second Remove reported Deleted=true")
	}
}

func TestGet_Absent(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	d, err := m.Get(context.Background(), "missing")
	if err != nil || d != nil {
		t.Errorf("Get(missing) = (%v, %v), want (nil, nil)", d, err)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	ctx := context.Background()
	d, _ := m.Create(ctx, validForm())

	got, _ := m.Get(ctx, d.ID)
	got.Title = "mutated"
	got.Articles[0].Title = "mutated"

	again, _ := m.Get(ctx, d.ID)
	if again.Title == "mutated" || again.Articles[0].Title == "mutated" {
		t.Error("Get result aliases stored state")
	}
}

func TestStorageFailure_TaggedResult(t *testing.T) {
	store := NewMemoryStore()
	store.Err = stderrors.New("disk full")
	core, logs := observer.New(zap.ErrorLevel)
	mx := metrics.New()
	m := NewManager(store, nil, zap.New(core), mx)

	_, err := m.Create(context.Background(), validForm())
	if !errors.Is(err, errors.ErrStorageFailed) {
		t.Fatalf("err = %v, want STORAGE_FAILED", err)
	}

	res := ResultOf(err)
	if res.Success {
		t.Error("Result.Success = true for a storage failure")
	}
	if !strings.Contains(res.Error, "disk full") {
		t.Errorf("Result.Error = %q, want cause", res.Error)
	}

	if logs.FilterMessage("local storage failed").Len() != 1 {
		t.Errorf("expected one storage failure log, got %v", logs.All())
	}

	expected := `
		# HELP newsdesk_storage_failures_total Storage failures by operation and backend
		# TYPE newsdesk_storage_failures_total counter
		newsdesk_storage_failures_total{backend="memory",op="create"} 1
	`
	if err := testutil.GatherAndCompare(mx.Registry(), strings.NewReader(expected), "newsdesk_storage_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestStorageFailure_CancelledContext(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Create(ctx, validForm())
	if !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("err = %v, want CANCELLED", err)
	}
}

func TestResultOf_Success(t *testing.T) {
	if got := ResultOf(nil); !got.Success || got.Error != "" {
		t.Errorf("ResultOf(nil) = %+v", got)
	}
}

func TestMirror_CalledPerOperation(t *testing.T) {
	mirror := &recordingMirror{enabled: true}
	m := NewManager(NewMemoryStore(), mirror, nil, nil)
	ctx := context.Background()

	d, err := m.Create(ctx, validForm())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.Update(ctx, d.ID, digest.Patch{Title: stringPtr("Renamed")}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if mirror.last == nil || mirror.last.Title != "Renamed" {
		t.Errorf("mirror last = %+v, want renamed digest", mirror.last)
	}
	if _, err := m.Remove(ctx, d.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	want := []string{"save:" + d.ID, "replace:" + d.ID, "delete:" + d.ID}
	if diff := cmp.Diff(want, mirror.calls); diff != "" {
		t.Errorf("mirror calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMirror_DisabledIsNotCalled(t *testing.T) {
	mirror := &recordingMirror{enabled: false}
	m := NewManager(NewMemoryStore(), mirror, nil, nil)

	if _, err := m.Create(context.Background(), validForm()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(mirror.calls) != 0 {
		t.Errorf("mirror calls = %v, want none", mirror.calls)
	}
	if m.MirrorEnabled() {
		t.Error("MirrorEnabled() = true")
	}
}

func TestMirror_FailureKeepsLocalWrite(t *testing.T) {
	mirror := &recordingMirror{enabled: true, fail: stderrors.New("connection refused")}
	mx := metrics.New()
	m := NewManager(NewMemoryStore(), mirror, nil, mx)
	ctx := context.Background()

	d, err := m.Create(ctx, validForm())
	if !errors.Is(err, errors.ErrMirrorFailed) {
		t.Fatalf("err = %v, want MIRROR_FAILED", err)
	}
	if d == nil {
		t.Fatal("Create returned nil digest on mirror failure")
	}
	if got, _ := m.Get(ctx, d.ID); got == nil {
		t.Error("local digest missing after mirror failure")
	}
	expected := `
		# HELP newsdesk_storage_failures_total Storage failures by operation and backend
		# TYPE newsdesk_storage_failures_total counter
		newsdesk_storage_failures_total{backend="mirror",op="save"} 1
	`
	if err := testutil.GatherAndCompare(mx.Registry(), strings.NewReader(expected), "newsdesk_storage_failures_total"); err != nil {
		t.Error(err)
	}
	if res := ResultOf(err); res.Success || !strings.Contains(res.Error, "connection refused") {
		t.Errorf("ResultOf = %+v", res)
	}
}

func TestManager_ConcurrentCreates(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Create(ctx, validForm()); err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}()
	}
	wg.Wait()

	all, err := m.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 10 {
		t.Errorf("stored %d digests, want 10", len(all))
	}
}
