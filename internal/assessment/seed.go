package assessment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the on-disk catalog format used for seeding.
type CatalogFile struct {
	Conditions []SeedCondition `yaml:"conditions"`
}

type SeedCondition struct {
	Name      string         `yaml:"name"`
	Questions []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Question `yaml:",inline"`
	Image    string `yaml:"image"` // local file copied into the blob store
}

// BlobPutter is the slice of a blob store seeding needs.
type BlobPutter interface {
	Put(key string, r io.Reader) (string, error)
}

// ParseCatalog decodes a YAML catalog. Questions are sorted by their order
// field; condition order is kept as written.
func ParseCatalog(r io.Reader) (CatalogFile, error) {
	var cf CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return CatalogFile{}, fmt.Errorf("decode catalog: %w", err)
	}
	seen := map[string]bool{}
	for i, c := range cf.Conditions {
		if c.Name == "" {
			return CatalogFile{}, fmt.Errorf("condition %d: name is required", i)
		}
		if seen[c.Name] {
			return CatalogFile{}, fmt.Errorf("condition %q: duplicate name", c.Name)
		}
		seen[c.Name] = true
		sort.SliceStable(c.Questions, func(a, b int) bool {
			return c.Questions[a].Order < c.Questions[b].Order
		})
	}
	return cf, nil
}

// ToConditions returns the catalog as domain conditions, without images.
func (cf CatalogFile) ToConditions() []Condition {
	out := make([]Condition, 0, len(cf.Conditions))
	for _, sc := range cf.Conditions {
		c := Condition{Name: sc.Name, Questions: make([]Question, 0, len(sc.Questions))}
		for _, q := range sc.Questions {
			c.Questions = append(c.Questions, q.Question)
		}
		out = append(out, c)
	}
	return out
}

// Seed writes every condition of the catalog file. Question images are
// copied into blobs (when non-nil) under questions/<id>/<basename>, relative
// to baseDir.
func Seed(ctx context.Context, w CatalogWriter, blobs BlobPutter, baseDir string, cf CatalogFile) (int, error) {
	conds := cf.ToConditions()
	for i, sc := range cf.Conditions {
		for j, q := range sc.Questions {
			if q.Image == "" || blobs == nil {
				continue
			}
			key, err := putImage(blobs, baseDir, q)
			if err != nil {
				return i, fmt.Errorf("condition %q question %q: %w", sc.Name, q.ID, err)
			}
			conds[i].Questions[j].ImageKey = key
		}
		if err := w.PutCondition(ctx, conds[i]); err != nil {
			return i, fmt.Errorf("put condition %q: %w", sc.Name, err)
		}
	}
	return len(conds), nil
}

// SeedFile parses path and seeds it; images resolve relative to the file.
func SeedFile(ctx context.Context, w CatalogWriter, blobs BlobPutter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	cf, err := ParseCatalog(f)
	if err != nil {
		return 0, err
	}
	return Seed(ctx, w, blobs, filepath.Dir(path), cf)
}

func putImage(blobs BlobPutter, baseDir string, q SeedQuestion) (string, error) {
	src := q.Image
	if !filepath.IsAbs(src) {
		src = filepath.Join(baseDir, src)
	}
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return blobs.Put("questions/"+q.ID+"/"+filepath.Base(src), f)
}
