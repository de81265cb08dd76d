// Package rdiff renders a structural YAML diff between two renderings of
// a node (its classes, applications, parameters, exports and
// environment, as EncodeNode writes them), supplementing spec.md with a
// CLI-only convenience
// (spec section 4.11): `reclass diff <node> --against <ref-file>`. It
// never participates in inventory resolution itself.
//
// Grounded on the teacher's internal/kubernetes/diff.go, which pairs the
// same two libraries (github.com/gonvenience/ytbx for document loading,
// github.com/homeport/dyff for the structural compare and human-readable
// report) to diff live-vs-desired Kubernetes manifests.
package rdiff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
)

// Render computes a structural YAML diff between before and after (both
// full YAML documents), returning "" if they are equivalent.
func Render(before, after []byte, useColor bool) (string, error) {
	if len(bytes.TrimSpace(before)) == 0 && len(bytes.TrimSpace(after)) == 0 {
		return "", nil
	}

	beforeInput, err := parseYAMLInput("before", before)
	if err != nil {
		return "", fmt.Errorf("parsing before YAML: %w", err)
	}
	afterInput, err := parseYAMLInput("after", after)
	if err != nil {
		return "", fmt.Errorf("parsing after YAML: %w", err)
	}

	report, err := dyff.CompareInputFiles(beforeInput, afterInput)
	if err != nil {
		return "", fmt.Errorf("comparing YAML: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	return renderReport(report, useColor)
}

func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}
	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}

func renderReport(report dyff.Report, useColor bool) (string, error) {
	var buf bytes.Buffer
	writer := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := writer.WriteReport(io.Writer(&buf)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
