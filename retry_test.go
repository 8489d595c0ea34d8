package strand

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAttemptsNormalizesToOne(t *testing.T) {
	require.Equal(t, 1, Attempts(0).Policy().MaxAttempts)
	require.Equal(t, 1, Attempts(-5).Policy().MaxAttempts)
	require.Equal(t, 4, Attempts(4).Policy().MaxAttempts)
}

func TestRetryBuilderStrategies(t *testing.T) {
	base := 50 * time.Millisecond

	p := Attempts(3).Constant(base).Policy()
	require.Equal(t, BackoffConstant, p.Backoff.Strategy)
	require.Equal(t, base, p.Backoff.Delay(1))
	require.Equal(t, base, p.Backoff.Delay(3))

	p = Attempts(3).Linear(base).Policy()
	require.Equal(t, BackoffLinear, p.Backoff.Strategy)
	require.Equal(t, 3*base, p.Backoff.Delay(3))

	p = Attempts(3).Exponential(base).Policy()
	require.Equal(t, BackoffExponential, p.Backoff.Strategy)
	require.Equal(t, 4*base, p.Backoff.Delay(3))
}

func TestRetryBuilderCap(t *testing.T) {
	p := Attempts(5).Exponential(100 * time.Millisecond).Cap(150 * time.Millisecond).Policy()
	require.Equal(t, 100*time.Millisecond, p.Backoff.Delay(1))
	require.Equal(t, 150*time.Millisecond, p.Backoff.Delay(2))
	require.Equal(t, 150*time.Millisecond, p.Backoff.Delay(4))
}

func TestRetryBuilderImmediate(t *testing.T) {
	p := Attempts(3).Exponential(time.Second).Immediate().Policy()
	require.Equal(t, time.Duration(0), p.Backoff.Delay(1))
	require.Equal(t, 3, p.MaxAttempts)
}

func TestRetryBuilderJitter(t *testing.T) {
	p := Attempts(3).Constant(100 * time.Millisecond).WithJitter().Policy()
	require.True(t, p.Backoff.Jitter)
	for i := 0; i < 50; i++ {
		d := p.Backoff.Delay(1)
		require.GreaterOrEqual(t, d, 50*time.Millisecond)
		require.Less(t, d, 150*time.Millisecond)
	}
}

func TestRetryBuilderIf(t *testing.T) {
	sentinel := errors.New("fatal")
	p := Attempts(3).If(func(err error) bool { return !errors.Is(err, sentinel) }).Policy()

	require.NotNil(t, p.RetryIf)
	require.False(t, p.RetryIf(sentinel))
	require.True(t, p.RetryIf(errors.New("transient")))
}

func TestRetryBuilderIsImmutable(t *testing.T) {
	base := Attempts(3).Constant(time.Second)
	withJitter := base.WithJitter()

	require.False(t, base.Policy().Backoff.Jitter)
	require.True(t, withJitter.Policy().Backoff.Jitter)
}
