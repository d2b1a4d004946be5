package plans

import (
	"errors"
	"strings"

	"github.com/TillWegner/MemberSync/internal/pkg/entitlements"
)

// ErrPlanNotFound is returned when a plan id has no catalog entry.
var ErrPlanNotFound = errors.New("plan not found")

// Plan describes a purchasable plan as the engine sees it. The catalog is an
// external collaborator; this package only defines the boundary plus a
// static default implementation.
type Plan struct {
	ID           string
	Name         string
	Tier         entitlements.Tier
	MonthlyPrice float64
	YearlyPrice  float64
}

// Catalog resolves plan ids carried in webhook correlation data.
type Catalog interface {
	GetPlan(planID string) (*Plan, error)
}

type staticCatalog struct {
	plans map[string]Plan
}

// NewStaticCatalog returns the built-in plan catalog.
func NewStaticCatalog() Catalog {
	return &staticCatalog{
		plans: map[string]Plan{
			"free": {ID: "free", Name: "Free", Tier: entitlements.TierFree},
			"pro":  {ID: "pro", Name: "Pro", Tier: entitlements.TierPro, MonthlyPrice: 9.90, YearlyPrice: 99.00},
			"max":  {ID: "max", Name: "Max", Tier: entitlements.TierMax, MonthlyPrice: 29.90, YearlyPrice: 299.00},
		},
	}
}

func (c *staticCatalog) GetPlan(planID string) (*Plan, error) {
	p, ok := c.plans[strings.ToLower(strings.TrimSpace(planID))]
	if !ok {
		return nil, ErrPlanNotFound
	}
	out := p
	return &out, nil
}
