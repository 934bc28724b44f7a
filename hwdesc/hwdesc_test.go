package hwdesc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturnelabs/pisasim/isa"
)

func TestCanonicalProfiles(t *testing.T) {
	for name := range Profiles {
		t.Run(name, func(t *testing.T) {
			d, err := Load(name)
			require.NoError(t, err)
			assert.Equal(t, name, d.Name)
			_, ok := d.InstructionTiming(isa.OpAdd)
			assert.True(t, ok)
			_, ok = d.MemoryTiming(TierRegister)
			assert.True(t, ok)
		})
	}
}

func TestUnknownProfile(t *testing.T) {
	_, err := Load("does-not-exist")
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	doc := `{
		"name": "custom",
		"isa_instruction_performance_map": {"add": {"throughput": 1, "latency": 1}},
		"isa_instruction_memory_map": {"register": {"throughput": 1, "latency": 1}},
		"tier_sizes": {"register": 4}
	}`
	d, err := LoadFile(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "custom", d.Name)
	timing, ok := d.InstructionTiming(isa.OpAdd)
	require.True(t, ok)
	assert.Equal(t, 1, timing.Latency)
}
