package targetgraph

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/jvmakine/fbsp/internal/obslog"
)

// TestStoreSnapshotShape pins the JSON shape of a stored build-target
// snapshot, the way vcs.gitGoldie pins git command output in the reference
// pack, so an accidental field rename or tag-rule regression shows up as a
// diff instead of silently changing the wire contract.
func TestStoreSnapshotShape(t *testing.T) {
	projectDir := "/workspace/app"
	g := New(obslog.New())
	if _, err := g.Store(mainAndTestModels(projectDir)); err != nil {
		t.Fatalf("Store: %v", err)
	}

	targets := g.GetAll()
	out, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	normalized := strings.ReplaceAll(string(out), filepath.ToSlash(projectDir), "PROJECT")

	golden := goldie.New(t, goldie.WithNameSuffix(".golden.json"))
	golden.Assert(t, "store_two_targets", []byte(normalized))
}
