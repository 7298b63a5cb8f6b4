package generator

import "fmt"

var (
	namePrefixes = []string{
		"Aurora", "Moonbeam", "Nebula", "Stardust", "Twilight", "Comet", "Zephyr", "Lumen",
		"Solstice", "Nimbus", "Seraph", "Prism", "Halo", "Ember", "Frost", "Whisper",
		"Dawn", "Eclipse", "Sable", "Opal", "Glimmer", "Willow", "Orion", "Celeste",
	}
	nameSuffixes = []string{
		"", "", "", " Bright", " Silvermane", " Starhoof", " Dreamer", " the Swift",
	}
)

func (g *gen) name() string {
	return namePrefixes[g.rng.Intn(len(namePrefixes))] + nameSuffixes[g.rng.Intn(len(nameSuffixes))]
}

// nameRegistry keeps generated names unique within one dataset.
type nameRegistry struct {
	counts map[string]int
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{counts: make(map[string]int)}
}

func (r *nameRegistry) unique(base string) string {
	count := r.counts[base]
	r.counts[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s %d", base, count+1)
}
