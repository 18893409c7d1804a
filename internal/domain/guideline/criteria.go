package guideline

import (
	"fmt"
	"strings"

	"github.com/rxguard/rxguard/internal/domain/patient"
)

// Criterion types.
const (
	CriterionAgeBetween        = "age-between"
	CriterionExcludesCondition = "excludes-condition"
	CriterionGenderIs          = "gender-is"
)

// Criterion is a tagged applicability predicate on a treatment rule. The type
// tag selects which fields are meaningful. Criteria do not gate rule selection
// during matching; callers apply them as a pre-filter where desired.
type Criterion struct {
	Type      string `json:"type"`
	MinAge    *int   `json:"min_age,omitempty"`
	MaxAge    *int   `json:"max_age,omitempty"`
	Condition string `json:"condition,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// Matches evaluates the criterion against a patient snapshot.
func (c Criterion) Matches(pc *patient.Context) (bool, error) {
	switch c.Type {
	case CriterionAgeBetween:
		if c.MinAge != nil && pc.Age < *c.MinAge {
			return false, nil
		}
		if c.MaxAge != nil && pc.Age > *c.MaxAge {
			return false, nil
		}
		return true, nil
	case CriterionExcludesCondition:
		needle := strings.ToLower(c.Condition)
		for _, cond := range pc.Conditions {
			if strings.Contains(strings.ToLower(cond.Name), needle) {
				return false, nil
			}
		}
		return true, nil
	case CriterionGenderIs:
		return strings.EqualFold(pc.Gender, c.Gender), nil
	default:
		return false, fmt.Errorf("unknown criterion type: %s", c.Type)
	}
}

// Validate checks that the criterion's tag and fields are coherent.
func (c Criterion) Validate() error {
	switch c.Type {
	case CriterionAgeBetween:
		if c.MinAge == nil && c.MaxAge == nil {
			return fmt.Errorf("age-between requires min_age or max_age")
		}
		if c.MinAge != nil && c.MaxAge != nil && *c.MinAge > *c.MaxAge {
			return fmt.Errorf("age-between: min_age %d exceeds max_age %d", *c.MinAge, *c.MaxAge)
		}
		return nil
	case CriterionExcludesCondition:
		if c.Condition == "" {
			return fmt.Errorf("excludes-condition requires condition")
		}
		return nil
	case CriterionGenderIs:
		if c.Gender == "" {
			return fmt.Errorf("gender-is requires gender")
		}
		return nil
	default:
		return fmt.Errorf("unknown criterion type: %s", c.Type)
	}
}

// MatchesAll reports whether every criterion matches the patient snapshot.
// An empty criteria set matches everything.
func MatchesAll(criteria []Criterion, pc *patient.Context) (bool, error) {
	for _, c := range criteria {
		ok, err := c.Matches(pc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
