package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rlch/soql"
	"github.com/rlch/soql/results"
)

// ToolingDir is the subdirectory holding tooling object descriptions.
const ToolingDir = "tooling"

var describeExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// Dir serves describe results saved as files, one object per file:
// <root>/<Name>.json|yaml and <root>/tooling/<Name>.json|yaml. It cannot run
// queries.
type Dir struct {
	root string
}

// NewDir returns a provider rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) path(tooling bool) string {
	if tooling {
		return filepath.Join(d.root, ToolingDir)
	}

	return d.root
}

// ListObjects returns the scalar properties of every described object,
// sorted by name. A missing directory is an empty catalog.
func (d *Dir) ListObjects(ctx context.Context, tooling bool) ([]soql.SchemaDescriptor, error) {
	files, err := d.files(tooling)
	if err != nil {
		return nil, err
	}

	objects := make([]soql.SchemaDescriptor, 0, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := readDescribe(f)
		if err != nil {
			return nil, err
		}

		s.Fields, s.ChildRelationships = nil, nil
		objects = append(objects, *s)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })

	return objects, nil
}

// Describe loads the file whose base name matches name case-insensitively.
func (d *Dir) Describe(ctx context.Context, name string, tooling bool) (*soql.SchemaDescriptor, error) {
	files, err := d.files(tooling)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		if !strings.EqualFold(base, name) {
			continue
		}

		s, err := readDescribe(f)
		if err != nil {
			return nil, err
		}

		if s.Fields == nil {
			s.Fields = []soql.FieldDescriptor{}
		}

		return s, nil
	}

	return nil, fmt.Errorf("%w: %s", soql.ErrUnknownObject, name)
}

// OrgInfo describes the directory as an offline org.
func (d *Dir) OrgInfo(context.Context) (*soql.OrgInfo, error) {
	return &soql.OrgInfo{Alias: "offline", InstanceURL: "file://" + filepath.ToSlash(d.root)}, nil
}

// Query always fails with soql.ErrQueryUnsupported.
func (d *Dir) Query(context.Context, string, bool) (*results.Result, error) {
	return nil, soql.ErrQueryUnsupported
}

func (d *Dir) files(tooling bool) ([]string, error) {
	dir := d.path(tooling)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading schema directory: %w", err)
	}

	var out []string

	for _, e := range entries {
		if e.IsDir() || !describeExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}

		out = append(out, filepath.Join(dir, e.Name()))
	}

	return out, nil
}

func readDescribe(path string) (*soql.SchemaDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var s soql.SchemaDescriptor

	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		unmarshal = json.Unmarshal
	}

	if err := unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &s, nil
}
