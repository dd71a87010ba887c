package watch

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/coxswain-dev/coxswain/pkg/kinds"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

func fakeRunnable() Runnable {
	return NewFiltered(watcherConfig{
		startWatch: func(options metav1.ListOptions) (watch.Interface, error) {
			return watch.NewFake(), nil
		},
	})
}

func testRunnables(errOnType map[schema.GroupVersionKind]bool) createWatcherFunc {
	return func(ctx context.Context, cfg watcherConfig) (Runnable, status.Error) {
		if errOnType[cfg.gvk] {
			return nil, status.APIServerErrorf(errors.New("failed"), "watcher failed for %s", cfg.gvk.String())
		}
		return fakeRunnable(), nil
	}
}

func TestManagerUpdateWatches(t *testing.T) {
	testCases := []struct {
		name string
		// watcherMap is the manager's map of watchers before the test begins.
		watcherMap map[schema.GroupVersionKind]Runnable
		// failedWatchers is the set of watchers which fail when started.
		failedWatchers map[schema.GroupVersionKind]bool
		// gvks is the set of declared types to update watches for.
		gvks map[schema.GroupVersionKind]struct{}
		// wantWatchedTypes is the set of GVKs the Manager should be watching
		// at the end of the test.
		wantWatchedTypes []schema.GroupVersionKind
		wantErr          bool
	}{
		{
			name:       "no watchers and nothing declared",
			watcherMap: map[schema.GroupVersionKind]Runnable{},
			gvks:       map[schema.GroupVersionKind]struct{}{},
		},
		{
			name:       "add watchers if declared",
			watcherMap: map[schema.GroupVersionKind]Runnable{},
			gvks: map[schema.GroupVersionKind]struct{}{
				kinds.Namespace(): {},
				kinds.Role():      {},
			},
			wantWatchedTypes: []schema.GroupVersionKind{kinds.Namespace(), kinds.Role()},
		},
		{
			name: "keep watchers if still declared",
			watcherMap: map[schema.GroupVersionKind]Runnable{
				kinds.Namespace(): fakeRunnable(),
				kinds.Role():      fakeRunnable(),
			},
			gvks: map[schema.GroupVersionKind]struct{}{
				kinds.Namespace(): {},
				kinds.Role():      {},
			},
			wantWatchedTypes: []schema.GroupVersionKind{kinds.Namespace(), kinds.Role()},
		},
		{
			name: "delete watchers if nothing declared",
			watcherMap: map[schema.GroupVersionKind]Runnable{
				kinds.Namespace(): fakeRunnable(),
				kinds.Role():      fakeRunnable(),
			},
			gvks: map[schema.GroupVersionKind]struct{}{},
		},
		{
			name: "add, keep, and delete watchers",
			watcherMap: map[schema.GroupVersionKind]Runnable{
				kinds.Role():        fakeRunnable(),
				kinds.RoleBinding(): fakeRunnable(),
			},
			gvks: map[schema.GroupVersionKind]struct{}{
				kinds.Namespace(): {},
				kinds.Role():      {},
			},
			wantWatchedTypes: []schema.GroupVersionKind{kinds.Namespace(), kinds.Role()},
		},
		{
			name:       "error on starting watcher",
			watcherMap: map[schema.GroupVersionKind]Runnable{},
			failedWatchers: map[schema.GroupVersionKind]bool{
				kinds.Role(): true,
			},
			gvks: map[schema.GroupVersionKind]struct{}{
				kinds.Namespace(): {},
				kinds.Role():      {},
			},
			wantWatchedTypes: []schema.GroupVersionKind{kinds.Namespace()},
			wantErr:          true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			options := &Options{
				watcherFunc: testRunnables(tc.failedWatchers),
			}
			m, err := NewManager(nil, nil, nil, options)
			if err != nil {
				t.Fatal(err)
			}
			m.watcherMap = tc.watcherMap

			gotErr := m.UpdateWatches(context.Background(), tc.gvks)
			if (gotErr != nil) != tc.wantErr {
				t.Errorf("got UpdateWatches() error %v, want error %t", gotErr, tc.wantErr)
			}
			if d := cmp.Diff(tc.wantWatchedTypes, m.watchedGVKs(), cmpopts.SortSlices(sortGVKs)); d != "" {
				t.Error(d)
			}
			if got := m.NeedsUpdate(); got != tc.wantErr {
				t.Errorf("got NeedsUpdate() = %t, want %t", got, tc.wantErr)
			}
		})
	}
}

func TestManagerRecoversFailedWatch(t *testing.T) {
	failed := map[schema.GroupVersionKind]bool{
		kinds.Role(): true,
	}
	m, err := NewManager(nil, nil, nil, &Options{watcherFunc: testRunnables(failed)})
	if err != nil {
		t.Fatal(err)
	}

	gvks := map[schema.GroupVersionKind]struct{}{
		kinds.Role(): {},
	}
	if err := m.UpdateWatches(context.Background(), gvks); err == nil {
		t.Fatal("got UpdateWatches() success on failing watcher, want error")
	}
	if !m.NeedsUpdate() {
		t.Error("got NeedsUpdate() = false after failed start, want true")
	}

	delete(failed, kinds.Role())
	if err := m.UpdateWatches(context.Background(), gvks); err != nil {
		t.Fatalf("got UpdateWatches() error %v after recovery", err)
	}
	if m.NeedsUpdate() {
		t.Error("got NeedsUpdate() = true after recovery, want false")
	}
	if d := cmp.Diff([]schema.GroupVersionKind{kinds.Role()}, m.watchedGVKs()); d != "" {
		t.Error(d)
	}
}

func TestManagerStop(t *testing.T) {
	m, err := NewManager(nil, nil, nil, &Options{watcherFunc: testRunnables(nil)})
	if err != nil {
		t.Fatal(err)
	}

	gvks := map[schema.GroupVersionKind]struct{}{
		kinds.Namespace(): {},
		kinds.Role():      {},
	}
	if err := m.UpdateWatches(context.Background(), gvks); err != nil {
		t.Fatal(err)
	}

	m.Stop()
	if got := m.watchedGVKs(); got != nil {
		t.Errorf("got %v watched after Stop, want none", got)
	}
}

func sortGVKs(l, r schema.GroupVersionKind) bool {
	return l.String() < r.String()
}
