package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/clusterkit/clusterkit/dataset/source"
)

// Customer is one record of the mall-customers dataset: an ID, a
// categorical gender, and three numeric attributes (age, annual income
// in thousands, spending score from 1 to 100).
type Customer struct {
	ID            int
	Gender        string
	Age           float64
	AnnualIncome  float64
	SpendingScore float64
}

// Canonical column names assigned to the customer frame regardless of
// the header variants the published CSV ships with.
const (
	ColCustomerID    = "CustomerID"
	ColGender        = "Gender"
	ColAge           = "Age"
	ColAnnualIncome  = "AnnualIncome"
	ColSpendingScore = "SpendingScore"
)

// SegmentationColumns are the feature columns customer segmentation
// clusters on.
var SegmentationColumns = []string{ColAge, ColAnnualIncome, ColSpendingScore}

// LoadCustomers fetches a customer CSV from src and returns the typed
// records along with a frame carrying canonical column names.
func LoadCustomers(ctx context.Context, src source.Source) ([]Customer, *Frame, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	raw, err := ReadCSV(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", src.Name(), err)
	}

	frame, err := canonicalCustomerFrame(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", src.Name(), err)
	}

	ids, _ := frame.Numeric(ColCustomerID)
	genders, _ := frame.Categorical(ColGender)
	ages, _ := frame.Numeric(ColAge)
	incomes, _ := frame.Numeric(ColAnnualIncome)
	scores, _ := frame.Numeric(ColSpendingScore)

	customers := make([]Customer, frame.Len())
	for i := range customers {
		customers[i] = Customer{
			ID:            int(ids[i]),
			Gender:        genders[i],
			Age:           ages[i],
			AnnualIncome:  incomes[i],
			SpendingScore: scores[i],
		}
	}
	return customers, frame, nil
}

// canonicalCustomerFrame maps the header variants of the published
// dataset ("Annual Income (k$)", "Spending Score (1-100)", ...) onto
// the canonical column names.
func canonicalCustomerFrame(raw *Frame) (*Frame, error) {
	find := func(canonical string, match func(string) bool) (*Column, error) {
		for _, name := range raw.Names() {
			if match(normalizeHeader(name)) {
				c, err := raw.Column(name)
				if err != nil {
					return nil, err
				}
				col := *c
				col.Name = canonical
				return &col, nil
			}
		}
		return nil, fmt.Errorf("%w: no header matches %q", ErrColumnNotFound, canonical)
	}

	id, err := find(ColCustomerID, func(h string) bool {
		return h == "customerid" || h == "id"
	})
	if err != nil {
		return nil, err
	}
	gender, err := find(ColGender, func(h string) bool {
		return h == "gender" || h == "genre" || h == "sex"
	})
	if err != nil {
		return nil, err
	}
	age, err := find(ColAge, func(h string) bool {
		return h == "age"
	})
	if err != nil {
		return nil, err
	}
	income, err := find(ColAnnualIncome, func(h string) bool {
		return strings.HasPrefix(h, "annualincome") || strings.HasPrefix(h, "income")
	})
	if err != nil {
		return nil, err
	}
	score, err := find(ColSpendingScore, func(h string) bool {
		return strings.HasPrefix(h, "spendingscore") || strings.HasPrefix(h, "score")
	})
	if err != nil {
		return nil, err
	}

	for _, col := range []*Column{id, age, income, score} {
		if col.Kind != KindNumeric {
			return nil, fmt.Errorf("%w: %q must be numeric", ErrColumnKind, col.Name)
		}
	}
	if gender.Kind != KindCategorical {
		return nil, fmt.Errorf("%w: %q must be categorical", ErrColumnKind, gender.Name)
	}

	return New(*id, *gender, *age, *income, *score)
}

// normalizeHeader lowercases a header and strips everything but
// letters and digits, so "Annual Income (k$)" becomes "annualincomek".
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
