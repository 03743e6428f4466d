package selector

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestPromptChooser(t *testing.T) {
	available := []string{"core", "edge", "Nexus"}

	tests := []struct {
		name    string
		input   string
		want    []string
		wantOut string
	}{
		{name: "empty means all", input: "\n", want: nil},
		{name: "eof means all", input: "", want: nil},
		{name: "indices", input: "1,3\n", want: []string{"core", "Nexus"}},
		{name: "names case-insensitive", input: "EDGE, nexus\n", want: []string{"edge", "Nexus"}},
		{name: "mixed with duplicates", input: "2, edge ,1\n", want: []string{"edge", "core"}},
		{name: "unknown ignored", input: "9,dc1,core\n", want: []string{"core"}, wantOut: `Ignoring unknown group "dc1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &PromptChooser{In: strings.NewReader(tt.input), Out: &out}
			got, err := p.ChooseGroups(available)
			if err != nil {
				t.Fatalf("ChooseGroups() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChooseGroups() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "3. Nexus") {
				t.Errorf("prompt should list numbered groups, got %q", out.String())
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q should contain %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestPromptChooserNoGroups(t *testing.T) {
	var out bytes.Buffer
	p := &PromptChooser{In: strings.NewReader("1\n"), Out: &out}
	got, err := p.ChooseGroups(nil)
	if err != nil || got != nil {
		t.Errorf("ChooseGroups(nil) = %v, %v; want nil, nil", got, err)
	}
	if out.Len() != 0 {
		t.Errorf("ChooseGroups(nil) should not prompt, wrote %q", out.String())
	}
}
