package targetgraph

import "testing"

func TestBuildTargetURIRoundTrip(t *testing.T) {
	cases := []struct {
		projectDir    string
		sourceSetName string
	}{
		{"/home/dev/project", "main"},
		{"/home/dev/project", "test"},
		{"/home/dev/my project", "integration test"},
		{"/home/dev/project", "debug&release=1"},
		{"/home/dev/project", "变体"},
	}
	for _, c := range cases {
		uri := BuildTargetURI(c.projectDir, c.sourceSetName)
		gotDir, gotName, err := ParseBuildTargetURI(uri)
		if err != nil {
			t.Fatalf("ParseBuildTargetURI(%q) error: %v", uri, err)
		}
		if gotDir != c.projectDir || gotName != c.sourceSetName {
			t.Fatalf("round trip mismatch for %q: got (%q, %q), want (%q, %q)", uri, gotDir, gotName, c.projectDir, c.sourceSetName)
		}
	}
}

func TestParseBuildTargetURIRejectsMissingSourceset(t *testing.T) {
	if _, _, err := ParseBuildTargetURI("file:///home/dev/project"); err == nil {
		t.Fatal("expected error for uri missing sourceset query parameter")
	}
}

func TestParseBuildTargetURIRejectsWrongScheme(t *testing.T) {
	if _, _, err := ParseBuildTargetURI("http://example.com?sourceset=main"); err == nil {
		t.Fatal("expected error for non-file scheme")
	}
}
