package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_PollEvery_OK(t *testing.T) {
	var n int
	f := func() bool {
		n++
		return n > 3
	}
	failed, ok := PollEvery(context.TODO(), f, time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, 3, failed)
}

func Test_PollEvery_Fail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.TODO())
	var n int
	f := func() bool {
		n++
		if n == 2 {
			cancel()
		}
		return n > 3
	}
	failed, ok := PollEvery(ctx, f, time.Millisecond)
	assert.False(t, ok)
	assert.Equal(t, 2, failed)
}

func Test_MergeErrors(t *testing.T) {
	assert.NoError(t, MergeErrors([]error{nil, nil}, "launch"))
	err := MergeErrors([]error{errors.New("a"), nil, errors.New("b")}, "launch")
	assert.EqualError(t, err, "launch failed with 2 errors: a, b")
}

func Test_Pluralize(t *testing.T) {
	assert.Equal(t, "1 attempt", Pluralize(1, "attempt", "attempts"))
	assert.Equal(t, "3 attempts", Pluralize(3, "attempt", "attempts"))
	assert.Equal(t, "0 attempts", Pluralize(0, "attempt", "attempts"))
}
