package organizations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestHookRunnerRetriesUntilSuccess(t *testing.T) {
	runner := NewHookRunner(zaptest.NewLogger(t), 3, nil)

	calls := 0
	runner.RunAll(context.Background(), []Hook{{
		Name: "flaky",
		Run: func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("transient")
			}
			return nil
		},
	}})
	assert.Equal(t, 2, calls)
}

func TestHookRunnerExhaustionRunsFallbackOnce(t *testing.T) {
	var failed []string
	runner := NewHookRunner(zaptest.NewLogger(t), 2, func(name string) {
		failed = append(failed, name)
	})

	calls, exhausted := 0, 0
	runner.RunAll(context.Background(), []Hook{{
		Name:        "doomed",
		Run:         func(context.Context) error { calls++; return errors.New("down") },
		OnExhausted: func(context.Context) { exhausted++ },
	}})
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, exhausted)
	assert.Equal(t, []string{"doomed"}, failed)
}

func TestHookRunnerFailureDoesNotStopLaterHooks(t *testing.T) {
	runner := NewHookRunner(zaptest.NewLogger(t), 1, nil)

	var ran bool
	runner.RunAll(context.Background(), []Hook{
		{Name: "broken", Run: func(context.Context) error { return errors.New("nope") }},
		{Name: "after", Run: func(context.Context) error { ran = true; return nil }},
	})
	assert.True(t, ran)
}
