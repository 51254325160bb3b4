package vrew

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Template is a project container used as the skeleton of every generated document.
// It is immutable after loading; each generation decodes its own copy of the project.
type Template struct {
	Path    string
	project []byte
	extras  []entry // entries other than project.json and media/
}

type entry struct {
	name string
	data []byte
}

// LoadTemplate reads a template container from disk.
func LoadTemplate(path string) (*Template, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnreadable, err)
	}
	defer zr.Close()

	t := &Template{Path: path}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") || strings.HasPrefix(f.Name, mediaEntryPrefix) {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrTemplateUnreadable, f.Name, err)
		}
		if f.Name == projectEntryName {
			t.project = data
			continue
		}
		t.extras = append(t.extras, entry{name: f.Name, data: data})
	}

	if t.project == nil {
		return nil, fmt.Errorf("%w: %s has no %s", ErrTemplateUnreadable, path, projectEntryName)
	}
	if _, err := t.decode(); err != nil {
		return nil, err
	}
	return t, nil
}

// decode returns a fresh, independently mutable copy of the template project.
// Numbers are kept as json.Number so untouched fields are written back unchanged.
func (t *Template) decode() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(t.project))
	dec.UseNumber()

	var project map[string]any
	if err := dec.Decode(&project); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrTemplateUnreadable, projectEntryName, err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s is not an object", ErrTemplateUnreadable, projectEntryName)
	}
	return project, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// object returns m[key] as an object, creating it when absent or of another type.
func object(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	v := make(map[string]any)
	m[key] = v
	return v
}
