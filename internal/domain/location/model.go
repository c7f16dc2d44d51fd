package location

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDistrictNotFound = errors.New("district not found")
	ErrThanaNotFound    = errors.New("thana not found")
	ErrInvalidDataset   = errors.New("invalid location dataset")
)

// Thana is the lowest administrative unit (upazila / police station).
type Thana struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// District holds its thanas in dataset order.
type District struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Thanas []Thana `json:"thanas" yaml:"thanas"`

	thanaIndex map[string]int
}

// Division is the root of the location tree.
type Division struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Districts []District `json:"districts" yaml:"districts"`

	districtIndex map[string]int
}

// index validates the tree and builds the id lookups at every level. It must
// run exactly once, before the division is shared.
func (d *Division) index() error {
	if d.ID == "" {
		return fmt.Errorf("%w: division id is empty", ErrInvalidDataset)
	}
	d.districtIndex = make(map[string]int, len(d.Districts))
	for i := range d.Districts {
		dist := &d.Districts[i]
		if dist.ID == "" {
			return fmt.Errorf("%w: district #%d has an empty id", ErrInvalidDataset, i)
		}
		if _, dup := d.districtIndex[dist.ID]; dup {
			return fmt.Errorf("%w: duplicate district id %q", ErrInvalidDataset, dist.ID)
		}
		d.districtIndex[dist.ID] = i

		if dist.Thanas == nil {
			dist.Thanas = []Thana{}
		}
		dist.thanaIndex = make(map[string]int, len(dist.Thanas))
		for j, th := range dist.Thanas {
			if th.ID == "" {
				return fmt.Errorf("%w: thana #%d of district %q has an empty id", ErrInvalidDataset, j, dist.ID)
			}
			if _, dup := dist.thanaIndex[th.ID]; dup {
				return fmt.Errorf("%w: duplicate thana id %q in district %q", ErrInvalidDataset, th.ID, dist.ID)
			}
			dist.thanaIndex[th.ID] = j
		}
	}
	return nil
}

func (d *Division) district(id string) (*District, bool) {
	i, ok := d.districtIndex[id]
	if !ok {
		return nil, false
	}
	return &d.Districts[i], true
}

func (d *District) thana(id string) (*Thana, bool) {
	i, ok := d.thanaIndex[id]
	if !ok {
		return nil, false
	}
	return &d.Thanas[i], true
}

// Stats summarises the size of a tree.
type Stats struct {
	Districts int `json:"districts"`
	Thanas    int `json:"thanas"`
}

func (d *Division) Stats() Stats {
	s := Stats{Districts: len(d.Districts)}
	for _, dist := range d.Districts {
		s.Thanas += len(dist.Thanas)
	}
	return s
}

// ThanaResponse is the body of a successful thana lookup.
type ThanaResponse struct {
	Thana *Thana `json:"thana"`
}

// Tree is a validated, immutable division together with its pre-encoded
// JSON form.
type Tree struct {
	division *Division
	encoded  []byte
}

// NewTree validates and indexes d. The caller must not modify d afterwards.
func NewTree(d *Division) (*Tree, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: no division", ErrInvalidDataset)
	}
	if err := d.index(); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode division: %w", err)
	}
	return &Tree{division: d, encoded: encoded}, nil
}

func (t *Tree) Division() *Division { return t.division }

// JSON returns the division encoded once at construction.
func (t *Tree) JSON() []byte { return t.encoded }
