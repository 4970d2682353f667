package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"finwise/internal/models"
)

// Amount patterns are tried in order; the first successful numeric parse
// wins. Matches cover "Rs.1,250.00", "INR 500", "₹99" and amounts following
// a transaction verb.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
	regexp.MustCompile(`(?i)(?:debited|credited|spent|paid|received)\s+(?:rs\.?|inr|₹)?\s*([0-9,]+(?:\.[0-9]{1,2})?)`),
}

var (
	debitVerbs  = regexp.MustCompile(`(?i)debited|spent|paid|withdrawn|purchase|debit`)
	creditVerbs = regexp.MustCompile(`(?i)credited|received|refund|deposit|credit`)
)

// Debit counterparty patterns, most specific first. The date-terminated
// "spent on X on <date>" form is preferred because the trailing date anchors
// the end of the name.
var debitCounterpartyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)spent\s+on\s+([A-Za-z0-9&@' ]{2,60}?)\s+on\s+\d`),
	regexp.MustCompile(`(?i)\bat\s+([A-Za-z0-9&@' -]{2,60})`),
	regexp.MustCompile(`(?i)\bto\s+([A-Za-z0-9&@' -]{2,60})`),
	regexp.MustCompile(`(?i)\bfor\s+([A-Za-z0-9&@' ]{2,60}?)\s+on\b`),
}

// Credit source patterns: an explicit "<reason> for <Month> <Year>" or
// "credited - <reason>" phrase, then "refund/cashback/bonus from X".
var (
	creditReasonForMonth = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z ]{1,40}?)\s+for\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4}`)
	creditedDashReason   = regexp.MustCompile(`(?i)credited\s*[-:]\s*([A-Za-z][A-Za-z ]{1,40})`)
	rewardFromSource     = regexp.MustCompile(`(?i)(?:refund|cashback|bonus)\s+from\s+([A-Za-z0-9&@' ]{2,40})`)
)

// incomeKeywords is the fallback for credit messages with no explicit
// source phrase. Ordered; the first keyword found in the message wins and
// its display label becomes the counterparty.
var incomeKeywords = []struct {
	keyword string
	label   string
}{
	{"salary", "Salary"},
	{"bonus", "Bonus"},
	{"incentive", "Incentive"},
	{"reimbursement", "Reimbursement"},
	{"refund", "Refund"},
	{"cashback", "Cashback"},
	{"interest", "Interest"},
	{"dividend", "Dividend"},
	{"transfer", "Transfer"},
}

var (
	accountPattern = regexp.MustCompile(`(?i)(?:a/c|acct|account|card)(?:\s+ending)?[\sxX*]*(\d{4})`)
	balancePattern = regexp.MustCompile(`(?i)(?:balance|bal|avbl|available)[\s:]*(?:rs\.?|inr|₹)?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
	regexp.MustCompile(`(?i)(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{2,4})`),
}

// dateLayouts are tried in order; the first layout that parses wins.
var dateLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2-1-06",
	"2/1/06",
	"2 Jan 2006",
	"2 Jan 06",
}

// Cleanup patterns applied to captured counterparty spans.
var (
	trailingDateFragment    = regexp.MustCompile(`(?i)\s+on\s+\d[\d/\- ]*$`)
	trailingAccountFragment = regexp.MustCompile(`(?i)\s+(?:from\s+|via\s+|using\s+)?(?:a/c|acct|account|card)\b.*$`)
	trailingChannelFragment = regexp.MustCompile(`(?i)\s+(?:via|using|through)\b.*$`)
	corporateSuffix         = regexp.MustCompile(`(?i)\b(?:pvt\.?\s*ltd\.?|private\s+limited)\b`)
	hasLetter               = regexp.MustCompile(`[A-Za-z]`)
	multiSpace              = regexp.MustCompile(`\s+`)
)

func extractAmount(message string) *float64 {
	for _, pattern := range amountPatterns {
		match := pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}
		if v := parseMoney(match[1]); v != nil {
			return v
		}
		// An unparseable number is a field miss, not an error; try the
		// next pattern.
	}
	return nil
}

func extractDirection(message string) models.TransactionDirection {
	switch {
	case debitVerbs.MatchString(message):
		return models.DirectionDebit
	case creditVerbs.MatchString(message):
		return models.DirectionCredit
	default:
		return models.DirectionUnknown
	}
}

func extractDebitCounterparty(message string) *string {
	for _, pattern := range debitCounterpartyPatterns {
		match := pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}
		if name := cleanCounterparty(match[1]); name != "" {
			upper := strings.ToUpper(name)
			return &upper
		}
	}
	return nil
}

func extractCreditSource(message string) *string {
	for _, pattern := range []*regexp.Regexp{creditReasonForMonth, creditedDashReason, rewardFromSource} {
		match := pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}
		if name := cleanCounterparty(match[1]); name != "" {
			title := titleCase(name)
			return &title
		}
	}

	lower := strings.ToLower(message)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw.keyword) {
			label := kw.label
			return &label
		}
	}
	return nil
}

func extractAccountLast4(message string) *string {
	match := accountPattern.FindStringSubmatch(message)
	if match == nil {
		return nil
	}
	return &match[1]
}

func extractBalance(message string) *float64 {
	match := balancePattern.FindStringSubmatch(message)
	if match == nil {
		return nil
	}
	return parseMoney(match[1])
}

func extractDate(message string) *time.Time {
	for _, pattern := range datePatterns {
		match := pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, match[1]); err == nil {
				return &t
			}
		}
	}
	// An unparseable date leaves the field empty; it never fails the parse.
	return nil
}

// parseMoney strips thousands separators and parses a monetary value.
// Returns nil when the string is not a valid number.
func parseMoney(raw string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// cleanCounterparty strips trailing date and account-reference fragments and
// corporate suffixes from a captured span and rejects spans that are too
// short or contain no letters. Returns "" when no usable name remains.
func cleanCounterparty(raw string) string {
	name := strings.TrimSpace(raw)
	name = trailingDateFragment.ReplaceAllString(name, "")
	name = trailingAccountFragment.ReplaceAllString(name, "")
	name = trailingChannelFragment.ReplaceAllString(name, "")
	name = corporateSuffix.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " -'")

	if len(name) < 3 || !hasLetter.MatchString(name) {
		return ""
	}
	return name
}

// titleCase normalizes a credit source/reason to Title Case.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
