package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	c := NewCoordinator(&stubOrders{}, &stubCatalog{}, &memorySink{}, nil, quietLogger())

	r.Register(DefaultPipelineID, c)

	got, ok := r.Get(DefaultPipelineID)
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = r.Get("unknown")
	assert.False(t, ok)
}

func TestRegistryIDsSorted(t *testing.T) {
	r := NewRegistry()
	c := NewCoordinator(&stubOrders{}, &stubCatalog{}, &memorySink{}, nil, quietLogger())
	r.Register("zeta", c)
	r.Register("alpha", c)
	r.Register(DefaultPipelineID, c)

	assert.Equal(t, []string{"alpha", "bin-packing", "zeta"}, r.IDs())
}
