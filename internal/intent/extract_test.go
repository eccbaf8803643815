package intent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wallet-agent/internal/domain"
)

func TestExtract_Phrasings(t *testing.T) {
	want := domain.TransferIntent{Amount: "0.5", Token: "ETH", Recipient: "ann.base.eth"}

	cases := []string{
		"send 0.5 eth to ann.base.eth",
		"Send 0.5 ETH to ann.base.eth",
		"transfer 0.5 eth to ann.base.eth",
		"give 0.5 eth to ann.base.eth",
		"pay 0.5 eth to ann.base.eth",
		"pay ann.base.eth 0.5 eth",
		"send zero point five eth to ann.base.eth",
		"sent 0.5 ether to ann dot base dot eth",
	}
	for _, text := range cases {
		got, err := Extract(text)
		require.NoError(t, err, "text=%q", text)
		require.Equal(t, want, got, "text=%q", text)
	}
}

func TestExtract_TokenDefaultsToETH(t *testing.T) {
	got, err := Extract("send 2 to bob.eth")
	require.NoError(t, err)
	require.Equal(t, domain.TransferIntent{Amount: "2", Token: "ETH", Recipient: "bob.eth"}, got)
}

func TestExtract_TokenUpperCased(t *testing.T) {
	got, err := Extract("send 3 usdc to bob.eth")
	require.NoError(t, err)
	require.Equal(t, "USDC", got.Token)

	got, err = Extract("send 5 bitcoin to bob.eth")
	require.NoError(t, err)
	require.Equal(t, "BITCOIN", got.Token)
}

func TestExtract_RecipientSuffixes(t *testing.T) {
	for _, recipient := range []string{
		"ann.base.eth", "ann.eth", "ann.bnb", "ann.polygon", "ann.arb", "ann.op",
	} {
		got, err := Extract("send 1 eth to " + recipient)
		require.NoError(t, err, "recipient=%q", recipient)
		require.Equal(t, recipient, got.Recipient)
	}
}

func TestExtract_UnknownSuffixIsNoIntent(t *testing.T) {
	_, err := Extract("send 1 eth to bob.xyz")
	require.ErrorIs(t, err, ErrNoIntent)
}

func TestExtract_NonTransferIsNoIntent(t *testing.T) {
	for _, text := range []string{"hello there", "what is my balance?", ""} {
		_, err := Extract(text)
		require.ErrorIs(t, err, ErrNoIntent, "text=%q", text)
	}
}

func TestExtract_MalformedAmount(t *testing.T) {
	_, err := Extract("send 1.2.3 eth to bob.eth")
	require.ErrorIs(t, err, ErrBadAmount)
}

func TestExtract_NonPositiveAmountIsReturned(t *testing.T) {
	// Positivity is enforced by the caller, not the extractor.
	got, err := Extract("send 0 eth to bob.eth")
	require.NoError(t, err)
	require.Equal(t, "0", got.Amount)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	got, err := Extract("send 1 eth to a.eth and transfer 2 btc to b.eth")
	require.NoError(t, err)
	require.Equal(t, domain.TransferIntent{Amount: "1", Token: "ETH", Recipient: "a.eth"}, got)
}

func TestExtract_LooseRuleMatchesRawText(t *testing.T) {
	// "token" is not a currency the strict patterns know, so only the raw-text
	// fallback rule can match this phrasing.
	got, err := Extract("SEND 1 token to bob.eth")
	require.NoError(t, err)
	require.Equal(t, domain.TransferIntent{Amount: "1", Token: "TOKEN", Recipient: "bob.eth"}, got)
}

func TestExtract_ReversedPayOrder(t *testing.T) {
	// "pay <recipient> <amount>" reverses the capture order, and the rule runs
	// on the raw text because normalization rewrites "pay" away.
	got, err := Extract("Pay ann.base.eth 0.5 eth")
	require.NoError(t, err)
	require.Equal(t, domain.TransferIntent{Amount: "0.5", Token: "ETH", Recipient: "ann.base.eth"}, got)

	got, err = Extract("pay bob.eth 3")
	require.NoError(t, err)
	require.Equal(t, domain.TransferIntent{Amount: "3", Token: "ETH", Recipient: "bob.eth"}, got)
}

func TestLooksLikeTransfer(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"send 1 eth to ann.base.eth", true},
		{"could you transfer something to bob.bnb", true},
		{"I paid carol.eth yesterday", true},
		{"send 5 dollars to mom", false},
		{"ann.base.eth is a nice name", false},
		{"give me a recipe", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, LooksLikeTransfer(tc.text), "text=%q", tc.text)
	}
}
