package session

import "hash/fnv"

// presencePalette is the fixed set of colors assigned to collaborators.
// Chosen for contrast against a light canvas.
var presencePalette = []string{
	"#E5484D", // red
	"#E5933A", // orange
	"#F2C94C", // yellow
	"#30A46C", // green
	"#12A594", // teal
	"#0091FF", // blue
	"#6E56CF", // violet
	"#D6409F", // pink
}

// PresenceColor maps a user ID onto the palette. The same user always
// gets the same color, on every session and every server instance.
func PresenceColor(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return presencePalette[h.Sum32()%uint32(len(presencePalette))]
}
