package code

import (
	"strings"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		qubits   int
		checks   [][]uint32
		logicals [][]uint32
		wantErr  bool
	}{
		{
			name:     "valid",
			qubits:   3,
			checks:   [][]uint32{{0, 1}, {1, 2}},
			logicals: [][]uint32{{0}},
		},
		{
			name:    "qubit out of range",
			qubits:  3,
			checks:  [][]uint32{{0, 3}},
			wantErr: true,
		},
		{
			name:    "empty check",
			qubits:  3,
			checks:  [][]uint32{{}},
			wantErr: true,
		},
		{
			name:    "no checks",
			qubits:  3,
			checks:  nil,
			wantErr: true,
		},
		{
			name:    "duplicate qubit in check",
			qubits:  3,
			checks:  [][]uint32{{1, 1}},
			wantErr: true,
		},
		{
			name:     "logical out of range",
			qubits:   3,
			checks:   [][]uint32{{0, 1}},
			logicals: [][]uint32{{7}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.name, tt.qubits, tt.checks, tt.logicals)
			if tt.wantErr {
				var ice *InvalidCodeError
				require.ErrorAs(t, err, &ice)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestChecksAreSorted(t *testing.T) {
	d, err := New("t", 4, [][]uint32{{3, 0, 2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2, 3}, d.Check(0))
}

func TestFingerprintStable(t *testing.T) {
	a, err := New("a", 3, [][]uint32{{0, 1}, {1, 2}}, [][]uint32{{0}})
	require.NoError(t, err)
	b, err := New("b", 3, [][]uint32{{1, 0}, {2, 1}}, [][]uint32{{0}})
	require.NoError(t, err)

	// Name does not participate; check order within a check does not either.
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := New("c", 3, [][]uint32{{0, 1}, {0, 2}}, [][]uint32{{0}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestRepetitionCode(t *testing.T) {
	d, err := RepetitionCode(4)
	require.NoError(t, err)
	assert.Equal(t, 4, d.NumQubits())
	assert.Equal(t, 3, d.NumChecks())
	assert.Equal(t, []uint32{0, 1}, d.Check(0))
	assert.Equal(t, []uint32{2, 3}, d.Check(2))
	assert.Equal(t, 1, d.NumLogicals())

	_, err = RepetitionCode(1)
	require.Error(t, err)
}

func TestCyclicRepetitionCode(t *testing.T) {
	d, err := CyclicRepetitionCode(3)
	require.NoError(t, err)
	assert.Equal(t, 3, d.NumQubits())
	assert.Equal(t, 3, d.NumChecks())

	// Check 0 compares the last and first qubits; an error on qubit 2
	// triggers checks 0 and 2.
	assert.Equal(t, []uint32{0, 2}, d.Check(0))
	assert.Equal(t, []uint32{0, 1}, d.Check(1))
	assert.Equal(t, []uint32{1, 2}, d.Check(2))
}

func TestSurfaceCode(t *testing.T) {
	d, err := SurfaceCode(3)
	require.NoError(t, err)
	assert.Equal(t, 3*3+2*2, d.NumQubits())
	assert.Equal(t, 3*2, d.NumChecks())

	// Interior checks have weight 4, top/bottom rows weight 3.
	assert.Len(t, d.Check(0), 3)
	assert.Len(t, d.Check(2), 4)
	assert.Len(t, d.Check(4), 3)

	// Logical support is the left column of horizontal qubits.
	want := roaring.BitmapOf(0, 3, 6)
	assert.True(t, want.Equals(d.LogicalSupport(0)))
}

func TestCheckParity(t *testing.T) {
	d, err := RepetitionCode(3)
	require.NoError(t, err)

	flips := roaring.BitmapOf(1)
	assert.True(t, d.CheckParity(0, flips))
	assert.True(t, d.CheckParity(1, flips))

	flips.Add(0)
	assert.False(t, d.CheckParity(0, flips))
	assert.True(t, d.CheckParity(1, flips))
}

func TestLoadYAML(t *testing.T) {
	const src = `
name: chain-4
qubits: 4
checks:
  - [0, 1]
  - [1, 2]
  - [2, 3]
logicals:
  - [0]
`
	d, err := LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "chain-4", d.Name())
	assert.Equal(t, 4, d.NumQubits())
	assert.Equal(t, 3, d.NumChecks())

	_, err = LoadYAML(strings.NewReader("qubits: [nope"))
	require.Error(t, err)
}
