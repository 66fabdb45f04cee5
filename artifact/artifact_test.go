package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecflow/rtdec/blobstore"
	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/noise"
)

func buildGraph(t *testing.T, d int) (*code.Description, *noise.Model, *graph.Graph) {
	t.Helper()
	desc, err := code.SurfaceCode(d)
	require.NoError(t, err)
	model, err := noise.Uniform(0.001)
	require.NoError(t, err)
	g, err := graph.Build(desc, model)
	require.NoError(t, err)
	return desc, model, g
}

func assertSameGraph(t *testing.T, want, got *graph.Graph) {
	t.Helper()
	require.Equal(t, want.NumChecks(), got.NumChecks())
	require.Equal(t, want.NumQubits(), got.NumQubits())
	require.Equal(t, want.NumEdges(), got.NumEdges())
	assert.Equal(t, want.CodeFingerprint(), got.CodeFingerprint())
	assert.Equal(t, want.ModelFingerprint(), got.ModelFingerprint())
	for i := 0; i < want.NumEdges(); i++ {
		assert.Equal(t, *want.Edge(int32(i)), *got.Edge(int32(i)), "edge %d", i)
	}
}

func TestEncodeDecode(t *testing.T) {
	_, _, g := buildGraph(t, 5)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := Encode(g, c)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assertSameGraph(t, g, got)
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	_, _, g := buildGraph(t, 3)
	data, err := Encode(g, CompressionNone)
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(data[:headerSize-1])
		assert.ErrorIs(t, err, ErrCorruptArtifact)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xff
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorruptArtifact)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = FormatVersion + 1
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorruptArtifact)
	})

	t.Run("payload bit flip", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0x01
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorruptArtifact)
	})
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	desc, model, g := buildGraph(t, 5)

	name, err := Save(ctx, store, g, CompressionZSTD)
	require.NoError(t, err)
	assert.Equal(t, Name(desc, model), name)

	got, err := Load(ctx, store, desc, model)
	require.NoError(t, err)
	assertSameGraph(t, g, got)
}

func TestLoad_NotFound(t *testing.T) {
	desc, model, _ := buildGraph(t, 3)

	_, err := Load(context.Background(), blobstore.NewMemoryStore(), desc, model)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestLoad_FingerprintMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	desc, _, g := buildGraph(t, 3)
	_, err := Save(ctx, store, g, CompressionNone)
	require.NoError(t, err)

	// Same artifact offered for a different noise model.
	other, err := noise.Uniform(0.01)
	require.NoError(t, err)
	data, err := Encode(g, CompressionNone)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, Name(desc, other), data))

	_, err = Load(ctx, store, desc, other)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "model", mismatch.Field)
}

func TestLoadedGraphDecodes(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	desc, model, g := buildGraph(t, 5)
	_, err := Save(ctx, store, g, CompressionLZ4)
	require.NoError(t, err)

	got, err := Load(ctx, store, desc, model)
	require.NoError(t, err)

	// Adjacency must match too, not just the edge list.
	for u := uint32(0); int(u) < g.NumChecks(); u++ {
		assert.Equal(t, g.Adj(u), got.Adj(u), "check %d", u)
	}
}
