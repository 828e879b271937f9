package membership

import (
	"fmt"
)

// Plan is a purchasable membership tier. Prices are in paise.
type Plan struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	DurationMonths int      `json:"duration_months"`
	PricePaise     int64    `json:"price_paise"`
	Features       []string `json:"features"`
}

// Catalog is the immutable set of plans known to the process.
type Catalog struct {
	plans []Plan
	byID  map[string]int
}

func NewCatalog(plans []Plan) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(plans))}
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan %q has no id", p.Name)
		}
		if p.DurationMonths <= 0 {
			return nil, fmt.Errorf("plan %q: duration must be positive", p.ID)
		}
		if p.PricePaise < 0 {
			return nil, fmt.Errorf("plan %q: price must not be negative", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		c.byID[p.ID] = len(c.plans)
		c.plans = append(c.plans, clonePlan(p))
	}
	return c, nil
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPlans())
	if err != nil {
		panic(err)
	}
	return c
}

func defaultPlans() []Plan {
	return []Plan{
		{
			ID:             "monthly",
			Name:           "Monthly Plan",
			DurationMonths: 1,
			PricePaise:     69900,
			Features: []string{
				"Access to all gym equipment",
				"Personal trainer consultation",
				"Group fitness classes",
				"Locker room access",
				"Fitness assessment",
			},
		},
		{
			ID:             "quarterly",
			Name:           "Quarterly Plan",
			DurationMonths: 3,
			PricePaise:     199900,
			Features: []string{
				"All Monthly Plan features",
				"Nutrition consultation",
				"Progress tracking",
				"Priority booking for classes",
				"Guest passes (2)",
			},
		},
		{
			ID:             "6month",
			Name:           "6 Month Plan",
			DurationMonths: 6,
			PricePaise:     399900,
			Features: []string{
				"All Quarterly Plan features",
				"Personalized workout plans",
				"Monthly body composition analysis",
				"Premium app features",
				"Unlimited guest passes",
			},
		},
	}
}

func (c *Catalog) Find(planID string) (Plan, error) {
	i, ok := c.byID[planID]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, planID)
	}
	return clonePlan(c.plans[i]), nil
}

// List returns the plans in catalog order.
func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	for i, p := range c.plans {
		out[i] = clonePlan(p)
	}
	return out
}

func clonePlan(p Plan) Plan {
	p.Features = append([]string(nil), p.Features...)
	return p
}
