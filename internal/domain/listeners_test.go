package domain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smp "github.com/totegamma/smp"
)

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingListener) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingListener) ServiceGroupCreatedOrUpdated(ctx context.Context, sg ServiceGroup) {
	r.add("put:" + sg.ID.Value)
}

func (r *recordingListener) ServiceGroupDeleted(ctx context.Context, id smp.Identifier) {
	r.add("delete:" + id.Value)
}

func TestCommitNotifiesOnlyOnSuccess(t *testing.T) {
	l := NewListeners()
	rec := &recordingListener{}
	l.AddServiceGroupListener(rec)

	ctx := context.Background()
	sg := ServiceGroup{ID: smp.Identifier{Scheme: "s", Value: "a"}}

	err := l.Commit(func() error { return nil }, func() { l.ServiceGroupCreatedOrUpdated(ctx, sg) })
	require.NoError(t, err)

	failure := errors.New("write failed")
	err = l.Commit(func() error { return failure }, func() { l.ServiceGroupDeleted(ctx, sg.ID) })
	assert.ErrorIs(t, err, failure)

	assert.Equal(t, []string{"put:a"}, rec.events)
}

func TestCommitPreservesOrder(t *testing.T) {
	l := NewListeners()
	rec := &recordingListener{}
	l.AddServiceGroupListener(rec)

	var (
		mu        sync.Mutex
		committed []string
		wg        sync.WaitGroup
	)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('A' + i%26))
			sg := ServiceGroup{ID: smp.Identifier{Scheme: "s", Value: name}}
			_ = l.Commit(func() error {
				mu.Lock()
				committed = append(committed, "put:"+name)
				mu.Unlock()
				return nil
			}, func() { l.ServiceGroupCreatedOrUpdated(ctx, sg) })
		}(i)
	}
	wg.Wait()

	assert.Equal(t, committed, rec.events)
}
