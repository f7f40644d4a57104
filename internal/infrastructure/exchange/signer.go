package exchange

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vmihailenco/msgpack/v5"
)

// signature is the r/s/v triple the venue expects alongside each action.
type signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V byte   `json:"v"`
}

// signer holds the API wallet key and produces the EIP-712 "phantom agent"
// signatures Hyperliquid requires for L1 actions: the action is msgpack
// encoded, hashed together with the nonce and vault marker, and the resulting
// connection id is signed as an Agent typed struct.
type signer struct {
	key     *ecdsa.PrivateKey
	mainnet bool
}

func newSigner(privateKeyHex string, mainnet bool) (*signer, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if raw == "" {
		return nil, fmt.Errorf("private key must be provided")
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &signer{key: key, mainnet: mainnet}, nil
}

// address returns the wallet address derived from the signing key.
func (s *signer) address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *signer) signAction(action any, vault string, nonce uint64) (*signature, error) {
	hash, err := actionHash(action, vault, nonce)
	if err != nil {
		return nil, err
	}
	source := "b" // testnet
	if s.mainnet {
		source = "a"
	}
	digest := phantomAgentDigest(source, hash)
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign action: %w", err)
	}
	return &signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}

// actionHash computes keccak(msgpack(action) || nonce_be8 || vault marker).
// A zero byte marks "no vault", 0x01 plus the vault address marks delegated
// trading.
func actionHash(action any, vault string, nonce uint64) (common.Hash, error) {
	data, err := msgpack.Marshal(action)
	if err != nil {
		return common.Hash{}, fmt.Errorf("msgpack action: %w", err)
	}
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	data = append(data, nonceBytes[:]...)
	if vault == "" {
		data = append(data, 0x00)
	} else {
		data = append(data, 0x01)
		data = append(data, common.HexToAddress(vault).Bytes()...)
	}
	return crypto.Keccak256Hash(data), nil
}

// phantomAgentDigest builds the EIP-712 digest for the Agent struct over the
// fixed Exchange domain (chain id 1337, zero verifying contract).
func phantomAgentDigest(source string, connectionID common.Hash) common.Hash {
	domainTypeHash := crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	domainSeparator := crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte("Exchange")).Bytes(),
		crypto.Keccak256Hash([]byte("1")).Bytes(),
		common.LeftPadBytes(big.NewInt(1337).Bytes(), 32),
		common.LeftPadBytes(common.Address{}.Bytes(), 32),
	)
	agentTypeHash := crypto.Keccak256Hash([]byte("Agent(string source,bytes32 connectionId)"))
	structHash := crypto.Keccak256Hash(
		agentTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte(source)).Bytes(),
		connectionID.Bytes(),
	)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator.Bytes(), structHash.Bytes())
}
