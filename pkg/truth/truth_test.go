package truth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidInputs(t *testing.T) {
	_, err := New(1.5, 0.5)
	require.Error(t, err)

	_, err = New(0.5, 1.0)
	require.Error(t, err, "confidence must never reach 1 (AIKR)")

	_, err = New(-0.1, 0.5)
	require.Error(t, err)

	v, err := New(0.5, 0.999)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v.F)
}

func TestExpectation(t *testing.T) {
	v := Value{F: 0.9, C: 0.8}
	assert.InDelta(t, 0.82, Expectation(v), 1e-9)

	neutral := Value{F: 0.5, C: 0}
	assert.InDelta(t, 0.5, Expectation(neutral), 1e-9)
}

func TestRevisionWorkedExample(t *testing.T) {
	// spec.md §8 scenario 3: positive feedback revision.
	a := Value{F: 0.5, C: 0.5}
	b := Value{F: 1.0, C: 0.9}

	r, err := Revision(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, r.F, 1e-9)
	assert.InDelta(t, 10.0/11.0, r.C, 1e-9)
}

func TestRevisionIsCommutative(t *testing.T) {
	a := Value{F: 0.3, C: 0.6}
	b := Value{F: 0.7, C: 0.4}

	ab, err := Revision(a, b)
	require.NoError(t, err)
	ba, err := Revision(b, a)
	require.NoError(t, err)

	assert.InDelta(t, ab.F, ba.F, 1e-9)
	assert.InDelta(t, ab.C, ba.C, 1e-9)
}

func TestRevisionOutputSatisfiesInvariant(t *testing.T) {
	inputs := []Value{
		{F: 0.1, C: 0.2}, {F: 0.9, C: 0.95}, {F: 0.0, C: 0.01}, {F: 1.0, C: 0.99},
	}
	for _, a := range inputs {
		for _, b := range inputs {
			r, err := Revision(a, b)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, r.F, 0.0)
			assert.LessOrEqual(t, r.F, 1.0)
			assert.GreaterOrEqual(t, r.C, 0.0)
			assert.Less(t, r.C, 1.0)
		}
	}
}

func TestDecay(t *testing.T) {
	v := Value{F: 0.8, C: 0.9}

	same, err := Decay(v, 1.0)
	require.NoError(t, err)
	assert.Equal(t, v, same, "decay by 1.0 is identity")

	lowered, err := Decay(v, 0.5)
	require.NoError(t, err)
	assert.Equal(t, v.F, lowered.F, "decay preserves frequency")
	assert.InDelta(t, 0.45, lowered.C, 1e-9)
	assert.Less(t, lowered.C, v.C)
}

func TestDecayRejectsOutOfRangeLambda(t *testing.T) {
	v := Value{F: 0.5, C: 0.5}
	_, err := Decay(v, 0)
	require.Error(t, err)
	_, err = Decay(v, 1.1)
	require.Error(t, err)
}

func TestPropagationAttenuationWorkedExample(t *testing.T) {
	// spec.md §8 scenario 4.
	root := Value{F: 1.0, C: 0.9}

	depth1, err := Decay(root, 0.5*0.8)
	require.NoError(t, err)
	assert.InDelta(t, 0.36, depth1.C, 1e-9)

	depth2, err := Decay(root, 0.3*0.3*1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.081, depth2.C, 1e-9)
}

func TestDeductionAbductionInductionIntersectionStayInRange(t *testing.T) {
	p1 := Value{F: 0.9, C: 0.9}
	p2 := Value{F: 0.8, C: 0.9}

	for _, v := range []Value{Deduction(p1, p2), Abduction(p1, p2), Induction(p1, p2), Intersection(p1, p2)} {
		assert.GreaterOrEqual(t, v.F, 0.0)
		assert.LessOrEqual(t, v.F, 1.0)
		assert.GreaterOrEqual(t, v.C, 0.0)
		assert.Less(t, v.C, 1.0)
	}
}
