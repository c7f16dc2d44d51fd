package location

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newEmbeddedService(t *testing.T) *Service {
	t.Helper()
	tree, err := Load(context.Background(), NewEmbeddedRepo())
	if err != nil {
		t.Fatalf("load embedded dataset: %v", err)
	}
	return NewService(tree)
}

func TestService_GetDistrict_EveryDistrict(t *testing.T) {
	svc := newEmbeddedService(t)

	// Compare against an independent decode so index building cannot hide a
	// reordering or mutation.
	raw, err := NewEmbeddedRepo().LoadDivision(context.Background())
	if err != nil {
		t.Fatalf("decode dataset: %v", err)
	}

	for _, want := range raw.Districts {
		got, err := svc.GetDistrict(want.ID)
		if err != nil {
			t.Fatalf("GetDistrict(%q): %v", want.ID, err)
		}
		if got.ID != want.ID {
			t.Errorf("GetDistrict(%q) returned %q", want.ID, got.ID)
		}
		if diff := cmp.Diff(want.Thanas, got.Thanas); diff != "" {
			t.Errorf("thanas of %q changed (-want +got):\n%s", want.ID, diff)
		}
	}
}

func TestService_GetDistrict_NotFound(t *testing.T) {
	svc := newEmbeddedService(t)
	for _, id := range []string{"unknown-district", "", "Rangpur-Sadar", "kotwali"} {
		got, err := svc.GetDistrict(id)
		if !errors.Is(err, ErrDistrictNotFound) {
			t.Errorf("GetDistrict(%q): expected ErrDistrictNotFound, got %v", id, err)
		}
		if got != nil {
			t.Errorf("GetDistrict(%q): expected nil district, got %+v", id, got)
		}
	}
}

func TestService_GetThana(t *testing.T) {
	svc := newEmbeddedService(t)

	th, err := svc.GetThana("rangpur-sadar", "kotwali")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.ID != "kotwali" || th.Name == "" {
		t.Errorf("unexpected thana: %+v", th)
	}
}

func TestService_GetThana_WrongDistrict(t *testing.T) {
	svc := newEmbeddedService(t)

	// biral belongs to dinajpur, not rangpur-sadar.
	_, err := svc.GetThana("rangpur-sadar", "biral")
	if !errors.Is(err, ErrThanaNotFound) {
		t.Errorf("expected ErrThanaNotFound, got %v", err)
	}
	if errors.Is(err, ErrDistrictNotFound) {
		t.Error("thana miss must not be reported as district miss")
	}
}

func TestService_GetThana_MissingDistrict(t *testing.T) {
	svc := newEmbeddedService(t)
	_, err := svc.GetThana("unknown-district", "kotwali")
	if !errors.Is(err, ErrDistrictNotFound) {
		t.Errorf("expected ErrDistrictNotFound, got %v", err)
	}
}

func TestService_DivisionJSONStable(t *testing.T) {
	svc := newEmbeddedService(t)
	first := string(svc.DivisionJSON())
	for i := 0; i < 3; i++ {
		if got := string(svc.DivisionJSON()); got != first {
			t.Fatal("division JSON changed between calls")
		}
	}
}
