package loadfacts

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFacts(t *testing.T, dir, relation, body string) {
	t.Helper()
	path := filepath.Join(dir, relation+".facts")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestDirLoadsKnownRelations(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "cfg_edge", "\"Start(bb0[0])\"\t\"Mid(bb0[0])\"\n\"Mid(bb0[0])\"\t\"Start(bb0[1])\"\n")
	writeFacts(t, dir, "loan_issued_at", "\"'a\"\t\"L0\"\t\"Start(bb0[0])\"\n")
	writeFacts(t, dir, "loan_invalidated_at", "\"L0\"\t\"Start(bb0[1])\"\n")

	tb := NewTables()
	f, err := Dir(dir, tb)
	if err != nil {
		t.Fatalf("Dir returned an error: %v", err)
	}
	if f.CFGEdge.Len() != 2 {
		t.Fatalf("CFGEdge.Len() = %d, want 2", f.CFGEdge.Len())
	}
	if f.LoanIssuedAt.Len() != 1 {
		t.Fatalf("LoanIssuedAt.Len() = %d, want 1", f.LoanIssuedAt.Len())
	}
	if f.LoanInvalidatedAt.Len() != 1 {
		t.Fatalf("LoanInvalidatedAt.Len() = %d, want 1", f.LoanInvalidatedAt.Len())
	}
	if tb.Points.Len() != 3 {
		t.Fatalf("interned %d distinct points, want 3 (Start(bb0[0]), Mid(bb0[0]), Start(bb0[1]))", tb.Points.Len())
	}
}

// Interning must be stable: the same point token appearing in two
// different relation files should resolve to the same atom.
func TestDirSharesInternerAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "cfg_edge", "\"Start(bb0[0])\"\t\"Mid(bb0[0])\"\n")
	writeFacts(t, dir, "loan_issued_at", "\"'a\"\t\"L0\"\t\"Start(bb0[0])\"\n")

	tb := NewTables()
	if _, err := Dir(dir, tb); err != nil {
		t.Fatalf("Dir returned an error: %v", err)
	}

	edgeSrc, ok := tb.Points.Lookup("Start(bb0[0])")
	if !ok {
		t.Fatal("Start(bb0[0]) should have been interned from cfg_edge.facts")
	}
	issuedPoint, ok := tb.Points.Lookup("Start(bb0[0])")
	if !ok {
		t.Fatal("Start(bb0[0]) should have been interned from loan_issued_at.facts")
	}
	if edgeSrc != issuedPoint {
		t.Fatalf("the same token resolved to different atoms: %v != %v", edgeSrc, issuedPoint)
	}
	if tb.Points.Len() != 2 {
		t.Fatalf("interned %d points, want 2 (Start(bb0[0]), Mid(bb0[0])) shared across both files", tb.Points.Len())
	}
}

func TestDirRejectsUnknownRelation(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "not_a_real_relation", "\"x\"\t\"y\"\n")

	tb := NewTables()
	if _, err := Dir(dir, tb); err == nil {
		t.Fatal("Dir should reject a .facts file for an unknown relation")
	}
}

func TestDirRejectsWrongArity(t *testing.T) {
	dir := t.TempDir()
	writeFacts(t, dir, "loan_killed_at", "\"L0\"\t\"Start(bb0[0])\"\t\"extra\"\n")

	tb := NewTables()
	if _, err := Dir(dir, tb); err == nil {
		t.Fatal("Dir should reject a loan_killed_at line with 3 fields instead of 2")
	}
}

func TestSplitFieldsFallsBackToRawOnUnquotedNumeric(t *testing.T) {
	fields, err := splitFields("L0\tP1")
	if err != nil {
		t.Fatalf("splitFields returned an error: %v", err)
	}
	if len(fields) != 2 || fields[0] != "L0" || fields[1] != "P1" {
		t.Fatalf("splitFields = %v, want [L0 P1]", fields)
	}
}
