package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripStableArithmetic(t *testing.T) {
	r, err := RoundTrip("1 + 2 * 3;")
	require.NoError(t, err)
	assert.True(t, r.Stable, "diff:\n%s", r.Diff)
}

func TestRoundTripStableFunctionDecl(t *testing.T) {
	r, err := RoundTrip(`
function fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
`)
	require.NoError(t, err)
	assert.True(t, r.Stable, "diff:\n%s", r.Diff)
}

func TestRoundTripStableClassAndControlFlow(t *testing.T) {
	r, err := RoundTrip(`
class Counter {
  #n = 0;
  constructor(start) {
    this.#n = start;
  }
  inc() {
    for (let i = 0; i < 3; i = i + 1) {
      this.#n = this.#n + 1;
    }
    return this.#n;
  }
}
let c = new Counter(0);
c.inc();
`)
	require.NoError(t, err)
	assert.True(t, r.Stable, "diff:\n%s", r.Diff)
}

func TestRoundTripStableObjectsAndArrays(t *testing.T) {
	r, err := RoundTrip(`
const obj = { a: 1, b: [1, 2, 3], get c() { return 4; } };
const { a, b: [x, y] } = obj;
`)
	require.NoError(t, err)
	assert.True(t, r.Stable, "diff:\n%s", r.Diff)
}

func TestRoundTripReportsParseError(t *testing.T) {
	_, err := RoundTrip("let = ;")
	assert.Error(t, err)
}
