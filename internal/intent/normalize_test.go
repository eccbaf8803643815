package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_LowerCases(t *testing.T) {
	require.Equal(t, "send 1 eth to bob.base.eth", Normalize("Send 1 ETH to BOB.base.eth"))
}

func TestNormalize_Substitutions(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"send 1 ether to bob.base.eth", "send 1 eth to bob.base.eth"},
		{"send 1 etherium to x.eth", "send 1 etheum to x.eth"},
		{"sent 2 bitcoins to x.eth", "send 2 bitcoin to x.eth"},
		{"send 1 bit coin to x.eth", "send 1 bitcoin to x.eth"},
		{"transfer 1 eth to x.eth", "send 1 eth to x.eth"},
		{"give 1 eth to x.eth", "send 1 eth to x.eth"},
		{"pay x.eth 1 eth", "send x.eth 1 eth"},
		{"send 1 eth to bob dot base dot eth", "send 1 eth to bob.base.eth"},
		{"send 1 eth to bob point base point eth", "send 1 eth to bob.base.eth"},
		{"send 1 eth to ann dot eth", "send 1 eth to ann.eth"},
		{"send zero point five eth to ann.base.eth", "send 0.5 eth to ann.base.eth"},
		{"send three eth to ann.base.eth", "send 3 eth to ann.base.eth"},
		{"send ten eth to ann.base.eth", "send 10 eth to ann.base.eth"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Normalize(tc.in), "in=%q", tc.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Send zero point five ETHER to ann dot base dot eth",
		"transfer one bit coin to bob point eth",
		"give ten ETH to carol.base.eth",
		"Pay dave.eth two etherium",
		"hello, how are you?",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "in=%q", in)
	}
}

func TestNormalize_CanonicalTextUnchanged(t *testing.T) {
	canonical := "send 0.5 eth to ann.base.eth"
	require.Equal(t, canonical, Normalize(canonical))
}
