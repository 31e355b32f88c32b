package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zjrosen/tasktpl/internal/domain/template"
	"github.com/zjrosen/tasktpl/internal/pubsub"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

func gatedRunner(t *testing.T, gate <-chan struct{}) *Runner {
	t.Helper()
	r := NewRunner()
	require.NoError(t, r.RegisterStep("slow", func(ctx context.Context, p template.Params, _ Ports) (template.Params, error) {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return template.Params{"enriched": "yes:" + p.String("title")}, nil
	}))
	return r
}

func TestEnricher_StartAndWait(t *testing.T) {
	gate := make(chan struct{})
	e := NewEnricher(gatedRunner(t, gate), Ports{}, DefaultEnricherConfig())
	defer e.Close()

	session := NewSession()
	require.True(t, e.Start(context.Background(), session, defWithWorkflows(t, "slow"), template.Params{"title": "T"}, "doc.md"))
	require.True(t, e.Pending(session))

	_, ok := e.Take(context.Background(), session)
	require.False(t, ok, "nothing before the workflow finishes")

	close(gate)
	patch, ok := e.Wait(context.Background(), session)
	require.True(t, ok)
	require.Equal(t, template.Params{"enriched": "yes:T"}, patch)

	_, ok = e.Take(context.Background(), session)
	require.False(t, ok, "a patch is consumed once")
}

func TestEnricher_SessionsDoNotOverwriteEachOther(t *testing.T) {
	gate := make(chan struct{})
	close(gate)
	e := NewEnricher(gatedRunner(t, gate), Ports{}, DefaultEnricherConfig())
	defer e.Close()
	def := defWithWorkflows(t, "slow")

	sessions := make([]Session, 8)
	for i := range sessions {
		sessions[i] = NewSession()
		require.True(t, e.Start(context.Background(), sessions[i], def, template.Params{"title": string(rune('a' + i))}, ""))
	}

	var wg sync.WaitGroup
	results := make([]template.Params, len(sessions))
	for i, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = e.Wait(context.Background(), s)
		}()
	}
	wg.Wait()

	for i := range sessions {
		require.Equal(t, "yes:"+string(rune('a'+i)), results[i].String("enriched"))
	}
}

func TestEnricher_NoWorkflows(t *testing.T) {
	e := NewEnricher(NewRunner(), Ports{}, DefaultEnricherConfig())
	defer e.Close()
	session := NewSession()

	require.False(t, e.Start(context.Background(), session, defWithWorkflows(t), nil, ""))
	require.False(t, e.Start(context.Background(), session, nil, nil, ""))

	_, ok := e.Wait(context.Background(), session)
	require.False(t, ok, "waiting on an unknown session returns immediately")
}

func TestEnricher_WaitRespectsContext(t *testing.T) {
	gate := make(chan struct{})
	e := NewEnricher(gatedRunner(t, gate), Ports{}, DefaultEnricherConfig())
	defer e.Close()
	defer close(gate)
	session := NewSession()
	require.True(t, e.Start(context.Background(), session, defWithWorkflows(t, "slow"), nil, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := e.Wait(ctx, session)
	require.False(t, ok)
}

func TestEnricher_CallerCancellationDoesNotStopRun(t *testing.T) {
	gate := make(chan struct{})
	e := NewEnricher(gatedRunner(t, gate), Ports{}, DefaultEnricherConfig())
	defer e.Close()
	session := NewSession()

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, e.Start(ctx, session, defWithWorkflows(t, "slow"), template.Params{"title": "T"}, ""))
	cancel()
	close(gate)

	patch, ok := e.Wait(context.Background(), session)
	require.True(t, ok)
	require.Equal(t, "yes:T", patch.String("enriched"))
}

func TestEnricher_TimeoutStillPublishes(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	e := NewEnricher(gatedRunner(t, gate), Ports{}, EnricherConfig{Timeout: 5 * time.Millisecond})
	defer e.Close()
	session := NewSession()

	require.True(t, e.Start(context.Background(), session, defWithWorkflows(t, "slow"), nil, ""))

	patch, ok := e.Wait(context.Background(), session)
	require.True(t, ok)
	require.Empty(t, patch, "a timed-out step contributes nothing")
}

func TestEnricher_ExpiredResultsArePublished(t *testing.T) {
	gate := make(chan struct{})
	close(gate)
	e := NewEnricher(gatedRunner(t, gate), Ports{}, EnricherConfig{TTL: time.Millisecond})
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := e.Subscribe(ctx)

	session := NewSession()
	require.True(t, e.Start(context.Background(), session, defWithWorkflows(t, "slow"), nil, ""))
	_, ok := pubsub.Await(ctx, events, func(ev pubsub.Event[Session]) bool { return ev.Type == pubsub.EnrichedEvent })
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	e.cache.DeleteExpired()

	ev, ok := pubsub.Await(ctx, events, nil)
	require.True(t, ok)
	require.Equal(t, pubsub.ExpiredEvent, ev.Type)
	require.Equal(t, session, ev.Payload)
}

func TestEnricher_StartAfterClose(t *testing.T) {
	e := NewEnricher(NewRunner(), Ports{}, DefaultEnricherConfig())
	e.Close()
	e.Close()

	require.False(t, e.Start(context.Background(), NewSession(), defWithWorkflows(t, WorkflowBlockRef), nil, ""))
}

func TestDiff(t *testing.T) {
	base := template.Params{"same": "1", "changed": "a", "gone": "x"}
	result := template.Params{"same": "1", "changed": "b", "added": []string{"v"}}

	require.Equal(t, template.Params{"changed": "b", "added": []string{"v"}}, Diff(base, result))
}
