package operations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/newtron-network/netkit/pkg/util"
)

// hostFile names a per-host artifact. Inventory names may hold path
// separators; the result is always a single file name.
func hostFile(host, suffix string) string {
	return util.SafeFileName(host) + suffix
}

// writeArtifact writes data to dir/name and returns the path.
func writeArtifact(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func writeJSON(dir, name string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", name, err)
	}
	return writeArtifact(dir, name, append(data, '\n'))
}

// orderedOutputs maps command to output and marshals in insertion order.
type orderedOutputs struct {
	keys   []string
	values map[string]string
}

func newOrderedOutputs() *orderedOutputs {
	return &orderedOutputs{values: map[string]string{}}
}

func (o *orderedOutputs) Set(key, value string) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *orderedOutputs) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *orderedOutputs) Len() int {
	return len(o.keys)
}

func (o *orderedOutputs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
