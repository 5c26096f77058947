package core

import "strings"

// CategoryOther is the fallback when no keyword matches.
const CategoryOther = "Other"

// CategoryEntry pairs a category name with its matching keywords.
// Order matters: Classify walks the table in declaration order and the
// last matching entry wins, so later entries override earlier ones when
// a purpose mentions keywords from both.
type CategoryEntry struct {
	Name     string
	Keywords []string
}

// CategoryTable is an ordered keyword-to-category mapping.
type CategoryTable []CategoryEntry

// IncomeCategories classifies positive transactions by purpose.
var IncomeCategories = CategoryTable{
	{Name: "Dues", Keywords: []string{"Dues"}},
	{Name: "Merchandise", Keywords: []string{"Merch", "Head Shot"}},
	{Name: "Sponsorship/Donation", Keywords: []string{"Sponsorship", "Donation"}},
	{Name: "Events", Keywords: []string{"Social Events", "Formal", "Professional Events", "Fundraiser", "ISOM Passport"}},
	{Name: "Refunds", Keywords: []string{"Reimbursement", "Refunded"}},
	{Name: "Transfers", Keywords: []string{"Transfers"}},
}

// ExpenseCategories classifies negative transactions by purpose.
var ExpenseCategories = CategoryTable{
	{Name: "Merchandise", Keywords: []string{"Merch", "Head Shot"}},
	{Name: "Events", Keywords: []string{"Social Events", "GBM Catering", "Formal", "Professional Events", "Fundraiser", "Road Trip", "ISOM Passport"}},
	{Name: "Food & Drink", Keywords: []string{"Food", "Drink", "Catering"}},
	{Name: "Travel", Keywords: []string{"Travel"}},
	{Name: "Reimbursements", Keywords: []string{"Reimbursement", "Refunded"}},
	{Name: "Transfers", Keywords: []string{"Transfers"}},
	{Name: "Tax & Fees", Keywords: []string{"Tax"}},
	{Name: "Miscellaneous", Keywords: []string{"Misc"}},
}

// Classify maps a free-text purpose to a category name using
// case-insensitive substring matching against the table's keywords.
// Every entry is checked and the last match in table order wins; an
// empty purpose or no match yields CategoryOther.
func Classify(purpose string, table CategoryTable) string {
	trimmed := strings.ToLower(strings.TrimSpace(purpose))
	if trimmed == "" {
		return CategoryOther
	}
	category := CategoryOther
	for _, entry := range table {
		for _, kw := range entry.Keywords {
			if strings.Contains(trimmed, strings.ToLower(kw)) {
				category = entry.Name
				break
			}
		}
	}
	return category
}
