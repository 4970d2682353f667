package parser

import "strings"

// CategoryKeywords maps one spend category to the counterparty keywords
// that identify it.
type CategoryKeywords struct {
	Name     string
	Keywords []string
}

// Taxonomy is the ordered keyword-to-category table used for debit
// categorization plus the credit-side keyword rules. The slice order is
// significant: when two categories match a counterparty with keywords of
// equal length, the earlier category wins.
type Taxonomy struct {
	Categories []CategoryKeywords
}

// CategoryOther is assigned when no keyword matches.
const CategoryOther = "other"

// Discretionary spend categories, treated as reducible by the analytics
// engines.
var DiscretionaryCategories = []string{"food", "entertainment", "shopping"}

// DefaultTaxonomy returns the built-in category table, tuned for Indian
// banks and payment apps.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{Categories: []CategoryKeywords{
		{Name: "food", Keywords: []string{
			"swiggy", "zomato", "restaurant", "cafe", "food", "pizza", "burger",
			"mcdonald", "kfc", "dominos", "subway", "starbucks",
		}},
		{Name: "transport", Keywords: []string{
			"uber", "ola", "rapido", "metro", "petrol", "fuel", "parking",
			"toll", "cab", "taxi", "bus", "train", "flight",
		}},
		{Name: "shopping", Keywords: []string{
			"amazon", "flipkart", "myntra", "ajio", "mall", "store", "shop",
			"clothing", "fashion", "footwear",
		}},
		{Name: "utilities", Keywords: []string{
			"electricity", "water", "gas", "mobile", "recharge", "airtel",
			"jio", "vodafone", "broadband", "internet", "wifi",
		}},
		{Name: "entertainment", Keywords: []string{
			"netflix", "prime", "hotstar", "spotify", "youtube", "movie",
			"theatre", "pvr", "inox", "cinema", "gaming",
		}},
		{Name: "groceries", Keywords: []string{
			"bigbasket", "blinkit", "zepto", "instamart", "dmart",
			"reliance fresh", "supermarket", "grocery", "vegetables", "fruits",
		}},
		{Name: "health", Keywords: []string{
			"pharmacy", "medicine", "hospital", "clinic", "doctor", "apollo",
			"medplus", "netmeds", "1mg", "pharmeasy", "dental",
		}},
	}}
}

// CategorizeCounterparty assigns a debit category from a counterparty name.
// The longest matching keyword wins; when two categories tie on keyword
// length the one earlier in the table wins. This is deliberately different
// from a highest-score match: the table order carries the tie-break.
func (t Taxonomy) CategorizeCounterparty(counterparty string) string {
	lower := strings.ToLower(counterparty)

	best := ""
	bestLen := 0
	for _, cat := range t.Categories {
		for _, kw := range cat.Keywords {
			if len(kw) > bestLen && strings.Contains(lower, kw) {
				best = cat.Name
				bestLen = len(kw)
			}
		}
	}

	if best == "" {
		return CategoryOther
	}
	return best
}

// creditCategoryRules maps message keywords to credit-side categories,
// checked in order.
var creditCategoryRules = []struct {
	keywords []string
	category string
}{
	{[]string{"salary"}, "income"},
	{[]string{"refund", "return"}, "refund"},
	{[]string{"cashback", "reward", "bonus"}, "cashback"},
	{[]string{"interest", "dividend"}, "investment"},
	{[]string{"transfer", "upi", "neft", "imps"}, "transfer"},
}

// CategorizeCredit assigns a category to a credit message from keywords in
// the whole text. Unrecognized credits default to income.
func (t Taxonomy) CategorizeCredit(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range creditCategoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return "income"
}

// IsDiscretionary reports whether a category is treated as reducible spend.
func IsDiscretionary(category string) bool {
	for _, c := range DiscretionaryCategories {
		if c == category {
			return true
		}
	}
	return false
}
