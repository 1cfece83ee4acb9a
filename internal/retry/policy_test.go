package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, ModeLinear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
	require.NoError(t, p.Validate())
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(ModeFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, ModeFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	p = NewPolicy("bogus", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), p)
	assert.Equal(t, ModeExponential, NewPolicy("Exponential", 0, 0, 0).Mode)
}

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(ModeFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, 100*time.Millisecond, fixed.Delay(i))
	}

	linear := NewPolicy(ModeLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	assert.Equal(t, 100*time.Millisecond, linear.Delay(1))
	assert.Equal(t, 200*time.Millisecond, linear.Delay(2))
	assert.Equal(t, 250*time.Millisecond, linear.Delay(3))

	exp := NewPolicy(ModeExponential, 100*time.Millisecond, 500*time.Millisecond, 5)
	assert.Equal(t, 100*time.Millisecond, exp.Delay(1))
	assert.Equal(t, 200*time.Millisecond, exp.Delay(2))
	assert.Equal(t, 400*time.Millisecond, exp.Delay(3))
	assert.Equal(t, 500*time.Millisecond, exp.Delay(4))
	assert.Zero(t, exp.Delay(0))
}

func TestDoRetriesTransientFailures(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, 5*time.Millisecond, 3)
	attempts := 0
	err := p.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary network failure")
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanentFailure(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, 5*time.Millisecond, 3)
	permanent := errors.New("authentication failed")
	attempts := 0
	err := p.Do(context.Background(), func() error {
		attempts++
		return permanent
	}, func(err error) bool { return !errors.Is(err, permanent) })
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 2).Do(context.Background(), func() error {
		attempts++
		return errors.New("down")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	require.Error(t, None().Do(context.Background(), func() error { attempts++; return errors.New("down") }, nil))
	assert.Equal(t, 1, attempts)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}
