package diff

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/sdejongh/ddiff/pkg/models"
)

func assertGolden(t *testing.T, name string, report []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, report)
}

func TestGoldenDirectoryScenario(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	h.CreateLeftFile("x.txt", binary("unchanged"))
	h.CreateLeftFile("y.txt", binary("version 1"))
	h.CreateRightFile("x.txt", binary("unchanged"))
	h.CreateRightFile("y.txt", binary("version 2"))
	h.CreateRightFile("z.txt", binary("added"))

	result, err := Run(testContext(t), h.env, h.leftDir, h.rightDir)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != models.StatusDifferent || result.Status.ExitCode() != 1 {
		t.Errorf("Status = %v (exit %d), want different (exit 1)", result.Status, result.Status.ExitCode())
	}

	r := NewReport()
	for _, line := range result.Lines {
		r.Line(line)
	}
	assertGolden(t, "directory_scenario", []byte(r.String()))
}

func TestGoldenNestedTree(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	h.CreateLeftFile("Readme.TXT", []byte("hello\nworld\n"))
	h.CreateLeftFile("only-left.bin", binary("x"))
	h.CreateLeftFile("sub/inner.bin", binary("a"))
	h.CreateRightFile("README.txt", []byte("hello\nthere\n"))
	h.CreateRightFile("sub/inner.bin", binary("ab"))
	h.CreateRightFile("sub/extra/deep.bin", binary("d"))
	h.CreateCabinet(filepath.Join(h.leftDir, "pkg.cab"), "setup.ini", "[setup]\nversion=1\n", "removed.txt", "bye\n")
	h.CreateCabinet(filepath.Join(h.rightDir, "pkg.cab"), "SETUP.INI", "[setup]\nversion=2\n")

	_, report := h.Diff(h.leftDir, h.rightDir)
	assertGolden(t, "nested_tree", []byte(report))
	h.AssertNoTempArtifacts()
}

func TestGoldenDirectoryScenarioText(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	h.CreateLeftFile("x.txt", []byte("unchanged\n"))
	h.CreateLeftFile("y.txt", []byte("version 1\n"))
	h.CreateRightFile("x.txt", []byte("unchanged\n"))
	h.CreateRightFile("y.txt", []byte("version 2\n"))
	h.CreateRightFile("z.txt", []byte("added\n"))

	differs, report := h.Diff(h.leftDir, h.rightDir)
	if !differs {
		t.Error("Diff() = false, want true")
	}
	assertGolden(t, "directory_scenario_text", []byte(report))
}
