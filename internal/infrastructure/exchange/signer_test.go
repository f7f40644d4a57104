package exchange

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAction() orderAction {
	return orderAction{
		Type: "order",
		Orders: []orderWire{{
			Asset:      0,
			IsBuy:      true,
			Price:      "43273.7",
			Size:       "0.1",
			ReduceOnly: false,
			Type:       orderTypeWire{Limit: limitWire{Tif: "Ioc"}},
		}},
		Grouping: "na",
	}
}

func TestSignAction_RecoversToWalletAddress(t *testing.T) {
	s, err := newSigner(testPrivateKey, true)
	require.NoError(t, err)

	sig, err := s.signAction(testAction(), "", 1700000000000)
	require.NoError(t, err)
	assert.Contains(t, []byte{27, 28}, sig.V)

	r, err := hexutil.Decode(sig.R)
	require.NoError(t, err)
	sb, err := hexutil.Decode(sig.S)
	require.NoError(t, err)

	hash, err := actionHash(testAction(), "", 1700000000000)
	require.NoError(t, err)
	digest := phantomAgentDigest("a", hash)

	raw := make([]byte, 65)
	copy(raw[32-len(r):32], r)
	copy(raw[64-len(sb):64], sb)
	raw[64] = sig.V - 27

	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	require.NoError(t, err)
	assert.Equal(t, s.address(), crypto.PubkeyToAddress(*pub))
}

func TestActionHash_SensitiveToNonceAndVault(t *testing.T) {
	base, err := actionHash(testAction(), "", 42)
	require.NoError(t, err)

	again, err := actionHash(testAction(), "", 42)
	require.NoError(t, err)
	assert.Equal(t, base, again, "hash must be deterministic")

	bumped, err := actionHash(testAction(), "", 43)
	require.NoError(t, err)
	assert.NotEqual(t, base, bumped)

	vaulted, err := actionHash(testAction(), "0x1111111111111111111111111111111111111111", 42)
	require.NoError(t, err)
	assert.NotEqual(t, base, vaulted)
}

func TestPhantomAgentDigest_NetworkSource(t *testing.T) {
	hash, err := actionHash(testAction(), "", 1)
	require.NoError(t, err)
	assert.NotEqual(t, phantomAgentDigest("a", hash), phantomAgentDigest("b", hash),
		"mainnet and testnet must never produce interchangeable signatures")
}

func TestNewSigner_RejectsBadKeys(t *testing.T) {
	_, err := newSigner("", true)
	assert.Error(t, err)

	_, err = newSigner("0xnothex", true)
	assert.Error(t, err)
}
