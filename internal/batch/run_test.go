package batch_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/epub"
)

func drain(t *testing.T, run *batch.Run) []batch.Event {
	t.Helper()
	var events []batch.Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-run.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for run events")
		}
	}
}

func TestStartDeliversEventsInOrder(t *testing.T) {
	source, dest := setup(t)
	touch(t, source, "a.epub", "b.epub")

	p := batch.New(
		batch.WithExtractor(fakeExtractor(map[string]int{"a.epub": 1, "b.epub": 1})),
		batch.WithTokenizer(wordTokenizer),
	)
	run, err := p.Start(context.Background(), config.RunConfig{SourceDir: source, DestinationDir: dest, Threshold: 0})
	require.NoError(t, err)

	events := drain(t, run)
	require.NotEmpty(t, events)

	final := run.Wait()
	assert.Equal(t, final, events[len(events)-1])
	assert.Equal(t, batch.Completed, final.State())
	assert.Equal(t, batch.Completed, run.State())

	completed := final.(batch.CompletedEvent)
	assert.Equal(t, run.ID, completed.Summary.RunID)

	rec := &recorder{events: events}
	assert.Equal(t, []batch.State{batch.Enumerating, batch.Processing, batch.Finalizing, batch.Completed}, rec.states())
	assert.Len(t, rec.progress(), 2)
	assert.False(t, p.Busy())
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	source, dest := setup(t)
	touch(t, source, "a.epub")

	release := make(chan struct{})
	entered := make(chan struct{})
	p := batch.New(
		batch.WithTokenizer(wordTokenizer),
		batch.WithExtractor(func(path string) (epub.Document, error) {
			close(entered)
			<-release
			return epub.Document{Text: "w"}, nil
		}),
	)

	run, err := p.Start(context.Background(), config.RunConfig{SourceDir: source, DestinationDir: dest, Threshold: 0})
	require.NoError(t, err)
	<-entered

	_, err = p.Start(context.Background(), config.RunConfig{SourceDir: source, DestinationDir: dest})
	assert.ErrorIs(t, err, batch.ErrRunInProgress)
	assert.Equal(t, batch.Processing, run.State())

	close(release)
	drain(t, run)
	assert.Equal(t, batch.Completed, run.Wait().State())
}

func TestRunCancel(t *testing.T) {
	source, dest := setup(t)
	for i := 0; i < 10; i++ {
		touch(t, source, fmt.Sprintf("book%02d.epub", i))
	}

	third := make(chan struct{})
	resume := make(chan struct{})
	calls := 0
	p := batch.New(
		batch.WithTokenizer(wordTokenizer),
		batch.WithExtractor(func(path string) (epub.Document, error) {
			calls++
			if calls == 3 {
				close(third)
				<-resume
			}
			return epub.Document{Text: "w w w"}, nil
		}),
	)

	run, err := p.Start(context.Background(), config.RunConfig{SourceDir: source, DestinationDir: dest, Threshold: 1})
	require.NoError(t, err)

	<-third
	run.Cancel()
	close(resume)

	events := drain(t, run)
	cancelled, ok := run.Wait().(batch.CancelledEvent)
	require.True(t, ok)
	assert.Len(t, cancelled.Results, 3)
	assert.Equal(t, 10, cancelled.Summary.Total)
	assert.Equal(t, cancelled, events[len(events)-1])

	run.Cancel()
}
