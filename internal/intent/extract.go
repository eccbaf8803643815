package intent

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"wallet-agent/internal/domain"
)

var (
	// ErrNoIntent reports that no transfer pattern matched the text.
	ErrNoIntent = errors.New("intent: no transfer intent found")

	// ErrBadAmount reports that a pattern matched but the captured amount is
	// not a parseable decimal number.
	ErrBadAmount = errors.New("intent: amount is not a valid decimal")
)

const (
	amountExpr    = `([\d.]+|zero point \d+)`
	tokenExpr     = `(eth|ethereum|btc|bitcoin|usdc|usdt)?`
	recipientExpr = `([a-zA-Z0-9.-]+\.(?:base\.eth|eth|bnb|polygon|arb|op))`
)

// assignFunc maps a pattern's capture groups onto (amount, token, recipient).
type assignFunc func(groups []string) (amount, token, recipient string)

func forwardAssign(g []string) (string, string, string) { return g[1], g[2], g[3] }

// payAssign handles the reversed argument order of "pay <recipient> <amount>".
func payAssign(g []string) (string, string, string) { return g[2], g[3], g[1] }

type rule struct {
	name   string
	re     *regexp.Regexp
	assign assignFunc

	// raw rules match against the original text instead of the normalized
	// form: normalization erases the "pay" keyword, and the loose rule backs
	// up input that skipped normalization entirely.
	raw bool
}

// rules are tried in order and the first match wins. The ordering is a
// deliberate tie-break, not an accident: more specific phrasings come first,
// and the loose raw-text rule is a last resort.
var rules = []rule{
	{name: "send", re: regexp.MustCompile(`(?i)send\s+` + amountExpr + `\s*` + tokenExpr + `\s+to\s+` + recipientExpr), assign: forwardAssign},
	{name: "transfer", re: regexp.MustCompile(`(?i)transfer\s+` + amountExpr + `\s*` + tokenExpr + `\s+to\s+` + recipientExpr), assign: forwardAssign},
	{name: "pay", re: regexp.MustCompile(`(?i)pay\s+` + recipientExpr + `\s+` + amountExpr + `\s*` + tokenExpr), assign: payAssign, raw: true},
	{name: "give", re: regexp.MustCompile(`(?i)give\s+` + amountExpr + `\s*` + tokenExpr + `\s+to\s+` + recipientExpr), assign: forwardAssign},
	{name: "send-loose", re: regexp.MustCompile(`(?i)send\s+([\d.]+)\s*(eth|token|btc|usdc|usdt)?\s+to\s+` + recipientExpr), assign: forwardAssign, raw: true},
}

// Extract normalizes the text and applies the transfer pattern rules in
// priority order. It returns ErrNoIntent when nothing matches, and
// ErrBadAmount when a pattern matched but the numeric token does not parse.
// A parseable but non-positive amount is returned as-is; positivity is the
// caller's concern.
func Extract(text string) (domain.TransferIntent, error) {
	normalized := Normalize(text)

	for _, r := range rules {
		target := normalized
		if r.raw {
			target = text
		}
		m := r.re.FindStringSubmatch(target)
		if m == nil {
			continue
		}

		amount, token, recipient := r.assign(m)
		amount = strings.ReplaceAll(amount, "zero point ", "0.")
		amount = strings.ReplaceAll(amount, "zero point", "0.")

		if token == "" {
			token = "ETH"
		} else {
			token = strings.ToUpper(token)
		}

		if _, err := decimal.NewFromString(amount); err != nil {
			return domain.TransferIntent{}, ErrBadAmount
		}

		return domain.TransferIntent{
			Amount:    amount,
			Token:     token,
			Recipient: recipient,
		}, nil
	}

	return domain.TransferIntent{}, ErrNoIntent
}

var actionKeywords = []string{"send", "transfer", "pay", "give"}

var recipientSuffixes = []string{".eth", ".base.eth", ".bnb", ".polygon", ".arb", ".op"}

// LooksLikeTransfer reports whether the text plausibly asks to move funds: it
// must contain at least one action keyword and at least one recognized
// recipient suffix. It is a cheap gate in front of Extract, not a parser.
func LooksLikeTransfer(text string) bool {
	lower := strings.ToLower(text)

	hasAction := false
	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) {
			hasAction = true
			break
		}
	}
	if !hasAction {
		return false
	}

	for _, suffix := range recipientSuffixes {
		if strings.Contains(lower, suffix) {
			return true
		}
	}
	return false
}
