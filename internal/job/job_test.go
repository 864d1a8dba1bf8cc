package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsFIFO(t *testing.T) {
	var q Queue
	var order []int
	q.Enqueue(New("a", func() error { order = append(order, 1); return nil }))
	q.Enqueue(New("b", func() error { order = append(order, 2); return nil }))
	q.Enqueue(New("c", func() error { order = append(order, 3); return nil }))

	require.NoError(t, q.Drain())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainsJobsEnqueuedDuringDraining(t *testing.T) {
	var q Queue
	var order []int
	q.Enqueue(New("outer", func() error {
		order = append(order, 1)
		q.Enqueue(New("inner", func() error {
			order = append(order, 2)
			return nil
		}))
		return nil
	}))

	require.NoError(t, q.Drain())
	assert.Equal(t, []int{1, 2}, order)
}

func TestQueueDrainReportsFirstErrorButKeepsGoing(t *testing.T) {
	var q Queue
	var ran []int
	boom := errors.New("boom")
	q.Enqueue(New("first", func() error { ran = append(ran, 1); return boom }))
	q.Enqueue(New("second", func() error { ran = append(ran, 2); return nil }))

	err := q.Drain()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1, 2}, ran)
}

func TestJobIDsAreUnique(t *testing.T) {
	j1 := New("x", func() error { return nil })
	j2 := New("x", func() error { return nil })
	assert.NotEqual(t, j1.ID, j2.ID)
}
