package facts

import (
	"testing"

	"github.com/go-polonius/polonius/atom"
)

const (
	a  atom.Origin = 0
	b  atom.Origin = 1
	La atom.Loan    = 0
	p0 atom.Point   = 0
)

func TestNewReturnsAllEmptyRelations(t *testing.T) {
	f := New()
	if f.CFGEdge.Len() != 0 || f.LoanIssuedAt.Len() != 0 || f.OriginLiveOnEntry.Len() != 0 {
		t.Fatal("New() should return a store with every relation empty, not nil")
	}
}

func TestPlaceholderOrigins(t *testing.T) {
	f := New()
	f.Placeholder.Insert(Placeholder{Origin: a, Loan: La})
	origins := f.PlaceholderOrigins()
	if _, ok := origins[a]; !ok {
		t.Fatal("PlaceholderOrigins should include an origin with a placeholder loan")
	}
	if _, ok := origins[b]; ok {
		t.Fatal("PlaceholderOrigins should not include an origin with no placeholder loan")
	}
}

// WithOriginLiveOnEntry must not mutate the receiver: the original store
// keeps its own OriginLiveOnEntry relation untouched.
func TestWithOriginLiveOnEntryDoesNotMutateOriginal(t *testing.T) {
	f := New()
	f.OriginLiveOnEntry.Insert(OriginLiveOnEntry{Origin: a, Point: p0})

	fresh := f.OriginLiveOnEntry.Clone()
	fresh.Insert(OriginLiveOnEntry{Origin: b, Point: p0})

	g := f.WithOriginLiveOnEntry(fresh)
	if f.OriginLiveOnEntry.Len() != 1 {
		t.Fatalf("original store's relation changed: Len() = %d, want 1", f.OriginLiveOnEntry.Len())
	}
	if g.OriginLiveOnEntry.Len() != 2 {
		t.Fatalf("new view's relation = %d, want 2", g.OriginLiveOnEntry.Len())
	}
}
