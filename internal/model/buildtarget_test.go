package model

import "testing"

func TestHasTag(t *testing.T) {
	target := &BuildTarget{Tags: []string{TagLibrary, TagTest}}
	if !target.HasTag(TagTest) {
		t.Fatal("expected HasTag(test) to be true")
	}
	if target.HasTag(TagApplication) {
		t.Fatal("expected HasTag(application) to be false")
	}
}
