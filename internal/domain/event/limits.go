package event

// MemberLimits bounds the group size for a single event.
type MemberLimits struct {
	Min int
	Max int
}

// Fest catalogue. Kept in code: the event list changes once a year,
// together with the frontend that renders it.
var memberLimits = map[string]MemberLimits{
	"skit":               {Min: 5, Max: 8},
	"mime":               {Min: 6, Max: 8},
	"dumb_charades":      {Min: 2, Max: 2},
	"fashion_show":       {Min: 12, Max: 15},
	"group_dance":        {Min: 6, Max: 8},
	"group_singing":      {Min: 6, Max: 6},
	"mad_ads":            {Min: 5, Max: 5},
	"gyan_thantra":       {Min: 2, Max: 2},
	"roadies":            {Min: 3, Max: 3},
	"new_product_launch": {Min: 3, Max: 5},
}

// Limits returns the member bounds for a group event. ok is false for
// solo events and unknown keys alike.
func Limits(name string) (MemberLimits, bool) {
	l, ok := memberLimits[name]

	return l, ok
}

// IsGroup reports whether the event takes more than one member.
// Unknown event keys count as solo, matching the registration form.
func IsGroup(name string) bool {
	l, ok := memberLimits[name]

	return ok && l.Max > 1
}
