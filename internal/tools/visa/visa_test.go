package visa

import (
	"context"
	"testing"

	"tripweaver/config"
)

func TestLookup(t *testing.T) {
	svc := New(config.VisaConfig{DefaultNationality: "SG"})
	ctx := context.Background()

	info, err := svc.Lookup(ctx, "", "id")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if info == nil || info.Status != VisaFree || info.DaysAllowed != 30 {
		t.Fatalf("got %+v", info)
	}

	info, err = svc.Lookup(ctx, "SG", "AU")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if info == nil || info.Status != EVisa {
		t.Fatalf("got %+v", info)
	}

	// unknown pairs are a miss, not an error
	if info, err := svc.Lookup(ctx, "SG", "ZZ"); err != nil || info != nil {
		t.Fatalf("got (%+v, %v)", info, err)
	}
	if info, err := svc.Lookup(ctx, "XX", "ID"); err != nil || info != nil {
		t.Fatalf("got (%+v, %v)", info, err)
	}
}
