package optimizer

import (
	"strings"
	"testing"

	"optipix/internal/config"
)

const sampleSVG = `<?xml version="1.0" encoding="UTF-8"?>
<!-- exported from an editor -->
<svg xmlns="http://www.w3.org/2000/svg"
     xmlns:inkscape="http://www.inkscape.org/namespaces/inkscape"
     inkscape:version="1.0"
     sodipodi:docname="icon.svg"
     adobe-illustrator-version="25.0"
     viewBox="0 0 100 100">
  <metadata>
    <rdf:RDF><cc:Work><dc:title>icon</dc:title></cc:Work></rdf:RDF>
  </metadata>
  <style>.red { fill: red; }</style>
  <circle class="red" cx="50" cy="50" r="40" inkscape:label="dot" />
  <path d="M10 10 L90 90" stroke="black" />
  <animate attributeName="r" values="10;20;10" dur="2s" repeatCount="indefinite" />
</svg>`

func TestSVGRemovesMetadata(t *testing.T) {
	out, err := svgOptimizer{}.Optimize([]byte(sampleSVG), config.Run{})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	result := string(out)

	for _, gone := range []string{
		"<!--", "<metadata", "rdf:RDF", "inkscape:version", "sodipodi:docname",
		"adobe-illustrator-version", "inkscape:label",
	} {
		if strings.Contains(result, gone) {
			t.Errorf("expected %q to be removed", gone)
		}
	}
}

func TestSVGPreservesVisualElements(t *testing.T) {
	out, err := svgOptimizer{}.Optimize([]byte(sampleSVG), config.Run{})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	result := string(out)

	for _, kept := range []string{
		`viewBox="0 0 100 100"`, "<style>", ".red { fill: red; }",
		`class="red"`, `cx="50"`, `r="40"`, `d="M10 10 L90 90"`,
		"<animate", `dur="2s"`, `xmlns="http://www.w3.org/2000/svg"`,
	} {
		if !strings.Contains(result, kept) {
			t.Errorf("expected %q to be preserved", kept)
		}
	}
}

func TestSVGIdempotent(t *testing.T) {
	once, err := svgOptimizer{}.Optimize([]byte(sampleSVG), config.Run{})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := svgOptimizer{}.Optimize(once, config.Run{})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if string(once) != string(twice) {
		t.Fatalf("transform is not idempotent:\nfirst:  %q\nsecond: %q", once, twice)
	}
}

func TestSVGAlreadyMinimalUnchanged(t *testing.T) {
	minimal := `<svg xmlns="http://www.w3.org/2000/svg"><circle r="1"/></svg>`
	out, err := svgOptimizer{}.Optimize([]byte(minimal), config.Run{})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if string(out) != minimal {
		t.Fatalf("minimal svg should pass through unchanged, got %q", out)
	}
}
