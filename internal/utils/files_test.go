package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tabloom/internal/utils"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := utils.SafeWriteFile(path, []byte(`{}`)); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != `{}` {
		t.Fatalf("unexpected content %q (%v)", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestOutputPath(t *testing.T) {
	if got := utils.OutputPath("/data/tickets.csv", "/out", ".md"); got != filepath.Join("/out", "tickets.csv.findings.md") {
		t.Fatalf("unexpected path %s", got)
	}
	if got := utils.OutputPath("/data/tickets.csv", "", ".json"); got != filepath.Join("/data", "tickets.csv.findings.json") {
		t.Fatalf("unexpected path %s", got)
	}
	if utils.OutputPath("data/sales.csv", "", ".md") == utils.OutputPath("data/sales.json", "", ".md") {
		t.Fatalf("inputs sharing a stem must not share a report")
	}
}

func TestUniqueOutputPaths(t *testing.T) {
	got := utils.UniqueOutputPaths([]string{"/d1/sales.csv", "/d2/sales.csv", "/d3/sales.csv", "/d1/sales.json"}, "/out", ".md")
	want := []string{
		filepath.Join("/out", "sales.csv.findings.md"),
		filepath.Join("/out", "sales.csv__2.findings.md"),
		filepath.Join("/out", "sales.csv__3.findings.md"),
		filepath.Join("/out", "sales.json.findings.md"),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("path %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
