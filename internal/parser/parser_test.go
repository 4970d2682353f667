package parser

import (
	"testing"

	"finwise/internal/models"
)

func TestParseDebitMessage(t *testing.T) {
	p := NewDefault()
	result := p.Parse("Rs.1,250 debited from A/C XX1234 at SWIGGY on 12-01-2024. Avbl Bal Rs.5,000")

	if result.Amount == nil || *result.Amount != 1250.0 {
		t.Errorf("expected amount 1250.0, got %v", result.Amount)
	}
	if result.Direction != models.DirectionDebit {
		t.Errorf("expected direction debit, got %s", result.Direction)
	}
	if result.AccountLast4 == nil || *result.AccountLast4 != "1234" {
		t.Errorf("expected account last4 1234, got %v", result.AccountLast4)
	}
	if result.Balance == nil || *result.Balance != 5000.0 {
		t.Errorf("expected balance 5000.0, got %v", result.Balance)
	}
	if result.Counterparty == nil || *result.Counterparty != "SWIGGY" {
		t.Errorf("expected counterparty SWIGGY, got %v", result.Counterparty)
	}
	if result.Category == nil || *result.Category != "food" {
		t.Errorf("expected category food, got %v", result.Category)
	}
	if result.Confidence < 0.8 {
		t.Errorf("expected confidence >= 0.8, got %f", result.Confidence)
	}
	if result.TransactionDate == nil {
		t.Fatal("expected transaction date to be extracted")
	}
	if y, m, d := result.TransactionDate.Date(); y != 2024 || int(m) != 1 || d != 12 {
		t.Errorf("expected date 2024-01-12, got %v", result.TransactionDate)
	}
}

func TestParseCreditMessage(t *testing.T) {
	p := NewDefault()
	result := p.Parse("INR 50000 credited - Salary for Jan 2024")

	if result.Direction != models.DirectionCredit {
		t.Errorf("expected direction credit, got %s", result.Direction)
	}
	if result.Amount == nil || *result.Amount != 50000.0 {
		t.Errorf("expected amount 50000.0, got %v", result.Amount)
	}
	if result.Counterparty == nil || *result.Counterparty != "Salary" {
		t.Errorf("expected counterparty Salary, got %v", result.Counterparty)
	}
	if result.Category == nil || *result.Category != "income" {
		t.Errorf("expected category income, got %v", result.Category)
	}
}

func TestParseAmountFormats(t *testing.T) {
	p := NewDefault()

	tests := []struct {
		name    string
		message string
		want    float64
	}{
		{"thousands_separator", "Rs.1,250.00 debited from your account", 1250.0},
		{"inr_prefix", "INR 500 spent at STORE", 500.0},
		{"rupee_symbol", "₹99 paid to Merchant", 99.0},
		{"verb_then_amount", "debited 2,500.50 from card x9876", 2500.50},
		{"large_amount", "Rs 1,00,000 credited to your account", 100000.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := p.Parse(tc.message)
			if result.Amount == nil {
				t.Fatalf("expected amount %.2f, got none", tc.want)
			}
			if *result.Amount != tc.want {
				t.Errorf("expected amount %.2f, got %.2f", tc.want, *result.Amount)
			}
		})
	}
}

func TestParseConfidenceBounds(t *testing.T) {
	p := NewDefault()

	messages := []string{
		"",
		"hello there",
		"Rs.100",
		"Rs.100 debited",
		"Rs.100 debited at SWIGGY",
		"Rs.100 debited from A/C XX1234 at SWIGGY",
		"Rs.100 debited from A/C XX1234 at SWIGGY. Avbl Bal Rs.900",
	}

	prev := -1.0
	for _, msg := range messages {
		result := p.Parse(msg)
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Errorf("confidence out of [0,1] for %q: %f", msg, result.Confidence)
		}
		// Each message adds extractable fields over the previous one, so
		// confidence must not decrease.
		if result.Confidence < prev {
			t.Errorf("confidence decreased for %q: %f < %f", msg, result.Confidence, prev)
		}
		prev = result.Confidence
	}
}

func TestParseIdempotent(t *testing.T) {
	p := NewDefault()
	msg := "Rs.1,250 debited from A/C XX1234 at SWIGGY on 12-01-2024. Avbl Bal Rs.5,000"

	first := p.Parse(msg)
	second := p.Parse(msg)

	if first.Confidence != second.Confidence {
		t.Errorf("confidence differs across parses: %f vs %f", first.Confidence, second.Confidence)
	}
	if deref(first.Counterparty) != deref(second.Counterparty) {
		t.Errorf("counterparty differs: %q vs %q", deref(first.Counterparty), deref(second.Counterparty))
	}
	if derefF(first.Amount) != derefF(second.Amount) {
		t.Errorf("amount differs: %f vs %f", derefF(first.Amount), derefF(second.Amount))
	}
	if deref(first.Category) != deref(second.Category) {
		t.Errorf("category differs: %q vs %q", deref(first.Category), deref(second.Category))
	}
}

func TestParseDirectionDefaults(t *testing.T) {
	p := NewDefault()

	t.Run("unknown", func(t *testing.T) {
		result := p.Parse("Your OTP is 482910")
		if result.Direction != models.DirectionUnknown {
			t.Errorf("expected unknown direction, got %s", result.Direction)
		}
		if result.Counterparty != nil {
			t.Errorf("expected no counterparty for unknown direction, got %q", *result.Counterparty)
		}
		if result.Category != nil {
			t.Errorf("expected no category for unknown direction, got %q", *result.Category)
		}
	})

	t.Run("debit_wins_over_credit", func(t *testing.T) {
		// "debited" and "credit card" both appear; debit verbs are
		// checked first.
		result := p.Parse("Rs.300 debited from credit card x1111")
		if result.Direction != models.DirectionDebit {
			t.Errorf("expected debit, got %s", result.Direction)
		}
	})
}

func TestParseCreditSourceFallbacks(t *testing.T) {
	p := NewDefault()

	tests := []struct {
		name         string
		message      string
		counterparty string
		category     string
	}{
		{"credited_dash", "Rs.2000 credited - Cashback offer", "Cashback Offer", "cashback"},
		{"reward_from", "You received a cashback from AMAZON PAY", "Amazon Pay", "cashback"},
		{"keyword_interest", "Rs.120 credited. Quarterly interest added", "Interest", "investment"},
		{"keyword_transfer", "Rs.5000 received via UPI transfer", "Transfer", "transfer"},
		{"default_income", "Rs.9000 credited to your account", nil2str(), "income"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := p.Parse(tc.message)
			if result.Direction != models.DirectionCredit {
				t.Fatalf("expected credit direction, got %s", result.Direction)
			}
			if deref(result.Counterparty) != tc.counterparty {
				t.Errorf("expected counterparty %q, got %q", tc.counterparty, deref(result.Counterparty))
			}
			if deref(result.Category) != tc.category {
				t.Errorf("expected category %q, got %q", tc.category, deref(result.Category))
			}
		})
	}
}

func TestCounterpartyCleanup(t *testing.T) {
	p := NewDefault()

	t.Run("strips_channel_fragment", func(t *testing.T) {
		result := p.Parse("Rs.500 paid to NETFLIX via card x4521")
		if deref(result.Counterparty) != "NETFLIX" {
			t.Errorf("expected NETFLIX, got %q", deref(result.Counterparty))
		}
		if deref(result.Category) != "entertainment" {
			t.Errorf("expected entertainment, got %q", deref(result.Category))
		}
	})

	t.Run("rejects_short_candidates", func(t *testing.T) {
		result := p.Parse("Rs.500 paid to AB")
		if result.Counterparty != nil {
			t.Errorf("expected no counterparty for 2-char candidate, got %q", *result.Counterparty)
		}
	})

	t.Run("rejects_letterless_candidates", func(t *testing.T) {
		result := p.Parse("Rs.500 paid to 12345")
		if result.Counterparty != nil {
			t.Errorf("expected no counterparty for digit-only candidate, got %q", *result.Counterparty)
		}
	})

	t.Run("strips_corporate_suffixes", func(t *testing.T) {
		cases := []struct {
			name    string
			message string
			want    string
		}{
			{"pvt_ltd", "Rs.1,250 debited from A/C XX1234 at SWIGGY PVT LTD", "SWIGGY"},
			{"pvt_ltd_multiword", "Rs.500 paid to Bundl Technologies Pvt Ltd", "BUNDL TECHNOLOGIES"},
			{"private_limited", "Rs.800 spent at ZOMATO PRIVATE LIMITED on 12-01-2024", "ZOMATO"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				result := p.Parse(tc.message)
				if deref(result.Counterparty) != tc.want {
					t.Errorf("expected counterparty %q, got %q", tc.want, deref(result.Counterparty))
				}
			})
		}
	})
}

func TestShouldEscalate(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		force      bool
		want       bool
	}{
		{"low_confidence", 0.5, false, true},
		{"at_threshold", 0.7, false, false},
		{"high_confidence", 0.9, false, false},
		{"forced", 0.9, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldEscalate(tc.confidence, tc.force); got != tc.want {
				t.Errorf("ShouldEscalate(%f, %v) = %v, want %v", tc.confidence, tc.force, got, tc.want)
			}
		})
	}
}

func TestCategorizeCounterparty(t *testing.T) {
	taxonomy := DefaultTaxonomy()

	tests := []struct {
		counterparty string
		want         string
	}{
		{"SWIGGY", "food"},
		{"UBER INDIA", "transport"},
		{"AMAZON RETAIL", "shopping"},
		{"AIRTEL PREPAID", "utilities"},
		{"NETFLIX", "entertainment"},
		{"BIGBASKET", "groceries"},
		{"APOLLO PHARMACY", "health"},
		{"RANDOM VENDOR", "other"},
	}

	for _, tc := range tests {
		t.Run(tc.counterparty, func(t *testing.T) {
			if got := taxonomy.CategorizeCounterparty(tc.counterparty); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func nil2str() string { return "" }
