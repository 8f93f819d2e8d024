package presence

import (
	"hash/fnv"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// Palette is the fixed set of colors assigned to collaborating clients
// (spec.md §4.5 "color assigned from a fixed palette keyed by client id
// hash for stability"). A client always gets the same color across
// reconnects since the assignment is a pure function of its id, never a
// counter or join order.
var Palette = []string{
	"#e53935", // red
	"#8e24aa", // purple
	"#3949ab", // indigo
	"#039be5", // light blue
	"#00897b", // teal
	"#7cb342", // light green
	"#fdd835", // yellow
	"#fb8c00", // orange
	"#6d4c41", // brown
	"#546e7a", // blue grey
}

// ColorFor returns the stable palette color for client.
func ColorFor(client identity.ClientID) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(client))
	return Palette[h.Sum32()%uint32(len(Palette))]
}
