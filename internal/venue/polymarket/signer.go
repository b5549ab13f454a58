package polymarket

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Signer implements Polymarket's two signature layers: an EIP-712 maker
// signature over the order intent (settlement-bound, via go-order-utils),
// and the HMAC-SHA256 request signature the CLOB's L2 auth requires
// (request-bound: base64 HMAC-SHA256 of timestamp+method+path+body).
type Signer struct {
	apiKey        string
	secret        string
	passphrase    string
	privateKey    *ecdsa.PrivateKey
	address       string
	proxyAddress  string
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
}

// SignerConfig configures a Signer.
type SignerConfig struct {
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKeyHex string
	ProxyAddress  string
	SignatureType int
}

// NewSigner builds a Signer from hex-encoded key material. Returns
// ErrSigningError-wrapping errors, which are fatal at startup in live mode.
func NewSigner(cfg SignerConfig) (*Signer, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", types.ErrSigningError, err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: derive public key", types.ErrSigningError)
	}
	address := crypto.PubkeyToAddress(*publicKeyECDSA).Hex()

	chainID := big.NewInt(137) // Polygon mainnet

	return &Signer{
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		passphrase:    cfg.Passphrase,
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		orderBuilder:  builder.NewExchangeOrderBuilderImpl(chainID, nil),
	}, nil
}

// MakerAddress returns the proxy address if configured, otherwise the EOA.
func (s *Signer) MakerAddress() string {
	if s.proxyAddress != "" {
		return s.proxyAddress
	}
	return s.address
}

// SignOrder produces the EIP-712 maker signature for one order leg.
func (s *Signer) SignOrder(tokenID string, side types.Side, makerAmount, takerAmount string) (signature string, err error) {
	orderSide := model.BUY
	if side == types.SideSell {
		orderSide = model.SELL
	}

	orderData := &model.OrderData{
		Maker:         s.MakerAddress(),
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          orderSide,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        s.address,
		Expiration:    "0",
		SignatureType: s.signatureType,
	}

	signedOrder, err := s.orderBuilder.BuildSignedOrder(s.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return "", fmt.Errorf("%w: build signed order: %v", types.ErrSigningError, err)
	}

	return "0x" + fmt.Sprintf("%x", signedOrder.Signature), nil
}

// SignRequest computes the HMAC-SHA256 L2 auth signature over
// timestamp+method+path+body.
func (s *Signer) SignRequest(timestamp, method, path, body string) (string, error) {
	secretBytes, err := base64.URLEncoding.DecodeString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: decode secret: %v", types.ErrSigningError, err)
	}

	payload := timestamp + method + path + body

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(payload))

	return base64.URLEncoding.EncodeToString(h.Sum(nil)), nil
}
