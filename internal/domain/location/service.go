package location

// Service answers lookups against an immutable Tree. All methods are safe for
// concurrent use and never mutate the tree.
type Service struct {
	tree *Tree
}

func NewService(tree *Tree) *Service {
	return &Service{tree: tree}
}

func (s *Service) GetDivision() *Division {
	return s.tree.Division()
}

// DivisionJSON returns the pre-encoded division; callers must not modify it.
func (s *Service) DivisionJSON() []byte {
	return s.tree.JSON()
}

func (s *Service) GetDistrict(districtID string) (*District, error) {
	dist, ok := s.tree.Division().district(districtID)
	if !ok {
		return nil, ErrDistrictNotFound
	}
	return dist, nil
}

// GetThana resolves the district first so a missing district is reported as
// ErrDistrictNotFound rather than ErrThanaNotFound.
func (s *Service) GetThana(districtID, thanaID string) (*Thana, error) {
	dist, err := s.GetDistrict(districtID)
	if err != nil {
		return nil, err
	}
	th, ok := dist.thana(thanaID)
	if !ok {
		return nil, ErrThanaNotFound
	}
	return th, nil
}

func (s *Service) Stats() Stats {
	return s.tree.Division().Stats()
}
