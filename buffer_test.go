package relay_test

import (
	"context"
	"testing"
	"time"

	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/relay"
	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
)

func TestSubject_Buffer(t *testing.T) {
	s := testcase.NewSpec(t)

	subject := testcase.Let(s, func(t *testcase.T) *relay.Subject[int] {
		l, _ := logging.Stub(t)
		return &relay.Subject[int]{Logger: l}
	})

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		t.Defer(cancel)
		return ctx
	})

	s.Test("values are collected in publish order, including the replayed history", func(t *testcase.T) {
		subject.Get(t).Next(1)

		buffer := subject.Get(t).Buffer(0)

		subject.Get(t).Next(2)
		subject.Get(t).Next(3)

		assert.Equal(t, 3, buffer.Len())
		for _, exp := range []int{1, 2, 3} {
			v, ok := buffer.TryPop()
			assert.True(t, ok)
			assert.Equal(t, exp, v)
		}
		_, ok := buffer.TryPop()
		assert.False(t, ok)
	})

	s.Test("a bounded buffer drops its oldest pending value when full", func(t *testcase.T) {
		buffer := subject.Get(t).Buffer(2)

		subject.Get(t).Next(1)
		subject.Get(t).Next(2)
		subject.Get(t).Next(3)

		assert.Equal(t, 2, buffer.Len())
		v, ok := buffer.TryPop()
		assert.True(t, ok)
		assert.Equal(t, 2, v)
		v, ok = buffer.TryPop()
		assert.True(t, ok)
		assert.Equal(t, 3, v)
	})

	s.Test("Pop blocks until a value is published", func(t *testcase.T) {
		buffer := subject.Get(t).Buffer(0)

		go subject.Get(t).Next(42)

		assert.Within(t, time.Second, func(context.Context) {
			v, err := buffer.Pop(ctx.Get(t))
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		})
	})

	s.Test("after completion, Pop drains the pending values and then reports ErrCompleted", func(t *testcase.T) {
		buffer := subject.Get(t).Buffer(0)

		subject.Get(t).Next(1)
		subject.Get(t).Complete()

		v, err := buffer.Pop(ctx.Get(t))
		assert.NoError(t, err)
		assert.Equal(t, 1, v)

		_, err = buffer.Pop(ctx.Get(t))
		assert.ErrorIs(t, err, relay.ErrCompleted)
	})

	s.Test("Pop is interrupted when the context is done", func(t *testcase.T) {
		buffer := subject.Get(t).Buffer(0)

		cctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := buffer.Pop(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	s.Test("a detached buffer stops collecting but remains pollable until drained", func(t *testcase.T) {
		buffer := subject.Get(t).Buffer(0)

		subject.Get(t).Next(1)
		buffer.Detach()
		subject.Get(t).Next(2)

		v, err := buffer.Pop(ctx.Get(t))
		assert.NoError(t, err)
		assert.Equal(t, 1, v)

		_, err = buffer.Pop(ctx.Get(t))
		assert.ErrorIs(t, err, relay.ErrDetached)
	})

	s.Test("detaching after the subject completed keeps reporting the completion", func(t *testcase.T) {
		buffer := subject.Get(t).Buffer(0)

		subject.Get(t).Complete()
		buffer.Detach()

		_, err := buffer.Pop(ctx.Get(t))
		assert.ErrorIs(t, err, relay.ErrCompleted)
	})

	s.Test("errors published on the subject are not buffered", func(t *testcase.T) {
		buffer := subject.Get(t).Buffer(0)

		subject.Get(t).Fail(t.Random.Error())

		assert.Equal(t, 0, buffer.Len())
	})
}
