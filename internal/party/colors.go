package party

// colourPalette is the fixed set of member colours, scanned in order.
// Its size matches maxPartyMembers so every member can get a colour.
var colourPalette = []string{
	"#058fbe",
	"#d70000",
	"#00b100",
	"#a300c4",
	"#ee7600",
	"#122b53",
}

// allocateColour returns the first palette colour not already used by a
// member of the party. Unidentified members contribute the empty string,
// which never collides with the palette. If the palette is somehow
// exhausted the member stays uncoloured rather than failing identify.
func allocateColour(members []Member) string {
	used := make(map[string]bool, len(members))
	for _, m := range members {
		used[m.Colour] = true
	}
	for _, c := range colourPalette {
		if !used[c] {
			return c
		}
	}
	return ""
}
