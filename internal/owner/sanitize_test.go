package owner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Verdict
	}{
		{"sentinel", "NOT_FOUND", Verdict{Reason: ReasonNotFound}},
		{"slogan", "Welcome to our store", Verdict{Reason: ReasonSlogan}},
		{"name with title", "John Smith (Owner)", Verdict{Valid: true, Name: "John Smith (Owner)"}},
		{"declarative sentence", "Jane Doe is identified as the founder", Verdict{Valid: true, Name: "Jane Doe (Owner)"}},
		{"bare names", "Jane Doe; Sales Rep", Verdict{Valid: true, Name: "Jane Doe (Owner?); Sales Rep (Owner?)"}},
		{"found marker and emphasis", "FOUND: **Maria Lopez (Co-Owner)**", Verdict{Valid: true, Name: "Maria Lopez (Co-Owner)"}},
		{"long sentence", "Based on public records, Robert Brown is the owner and operator of this bakery since 2009.", Verdict{Valid: true, Name: "Robert Brown (Owner)"}},
		{"unable to find", "I was unable to find the owner of this business.", Verdict{Reason: ReasonNotFound}},
		{"too short", "ok", Verdict{Reason: ReasonNotFound}},
		{"empty", "   ", Verdict{Reason: ReasonNotFound}},
		{"header", "About Us - family bakery", Verdict{Reason: ReasonSlogan}},
		{"single word", "Smith", Verdict{Reason: ReasonBadFormat}},
		{"too many words", "the bakery is run by a local family", Verdict{Reason: ReasonBadFormat}},
		{"emphasized marker", "**FOUND:** Maria Lopez (Founder)", Verdict{Valid: true, Name: "Maria Lopez (Founder)"}},
		{"marker on every part", "FOUND: Anna Berg (Owner); FOUND: Tom Berg (Director)", Verdict{Valid: true, Name: "Anna Berg (Owner); Tom Berg (Director)"}},
		{"short non-latin answer", "李明", Verdict{Reason: ReasonNotFound}},
		{"length counted in characters", "Ms Maria Lopez was the owner (Ιδιοκτήτρια)", Verdict{Valid: true, Name: "Ms Maria Lopez was the owner (Ιδιοκτήτρια)"}},
		{"mixed parts", "Jane Doe (Owner); Manager; Tom Lee", Verdict{Valid: true, Name: "Jane Doe (Owner); Tom Lee (Owner?)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func TestSanitize_HeaderBeforeSplit(t *testing.T) {
	// A header prefix rejects the whole answer even if a later part is a valid name
	got := Sanitize("Contact; Jane Doe (Owner)")
	assert.False(t, got.Valid)
	assert.Equal(t, ReasonSlogan, got.Reason)
}
