package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ornlund/mdshake/internal/tui"
)

func TestSVGContainsLitDots(t *testing.T) {
	c := tui.NewCanvas(4, 4)
	c.Set(0, 0)
	c.Set(3, 5)

	doc := SVG(c, 4)
	if !strings.HasPrefix(doc, `<?xml version="1.0"`) {
		t.Error("missing xml header")
	}
	if got := strings.Count(doc, "<circle"); got != 2 {
		t.Errorf("expected 2 circles, got %d", got)
	}
	if !strings.Contains(doc, "</svg>") {
		t.Error("unterminated document")
	}
}

func TestSVGNilCanvas(t *testing.T) {
	if doc := SVG(nil, 4); doc != "" {
		t.Errorf("expected empty string for nil canvas, got %q", doc)
	}
}

func TestWriteSVG(t *testing.T) {
	c := tui.NewCanvas(2, 2)
	c.DrawLine(0, 0, 3, 7)

	path := filepath.Join(t.TempDir(), "out.svg")
	if err := WriteSVG(path, c, 4); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !strings.Contains(string(data), "<circle") {
		t.Error("written file has no dots")
	}
}
