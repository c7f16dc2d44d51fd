package location

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/rangpur.json
var embeddedDataset []byte

// DivisionRepository loads the raw division tree. It is consulted once at
// startup; the result is validated and frozen by NewTree.
type DivisionRepository interface {
	LoadDivision(ctx context.Context) (*Division, error)
}

type embeddedRepo struct{}

// NewEmbeddedRepo returns a repository backed by the dataset compiled into
// the binary.
func NewEmbeddedRepo() DivisionRepository {
	return embeddedRepo{}
}

func (embeddedRepo) LoadDivision(_ context.Context) (*Division, error) {
	return decodeJSON(embeddedDataset)
}

type fileRepo struct {
	path string
}

// NewFileRepo returns a repository reading a JSON or YAML dataset from path.
// The format is chosen by extension.
func NewFileRepo(path string) DivisionRepository {
	return &fileRepo{path: path}
}

func (r *fileRepo) LoadDivision(_ context.Context) (*Division, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", r.path, err)
	}
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".json":
		return decodeJSON(raw)
	case ".yaml", ".yml":
		return decodeYAML(raw)
	default:
		return nil, fmt.Errorf("%w: unsupported dataset extension %q", ErrInvalidDataset, filepath.Ext(r.path))
	}
}

func decodeJSON(raw []byte) (*Division, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var d Division
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return &d, nil
}

func decodeYAML(raw []byte) (*Division, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var d Division
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return &d, nil
}

// Load reads the division from repo and freezes it into a Tree.
func Load(ctx context.Context, repo DivisionRepository) (*Tree, error) {
	d, err := repo.LoadDivision(ctx)
	if err != nil {
		return nil, err
	}
	return NewTree(d)
}
