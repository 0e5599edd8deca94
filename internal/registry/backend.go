package registry

import (
	"context"
	"math/big"

	"github.com/ppiankov/walletgate/internal/model"
)

// Account is a raw account produced by a wallet backend. It publishes its
// operations as an explicit method table.
type Account interface {
	Methods() model.MethodSet
}

// FeeRates are the backend's current fee suggestions, in the chain's base unit.
type FeeRates struct {
	Normal *big.Int `json:"normal"`
	Fast   *big.Int `json:"fast"`
}

// WalletBackend is the capability contract consumed from a wallet
// implementation. Key derivation, signing and RPC live behind it.
type WalletBackend interface {
	GetAccount(ctx context.Context, index uint32) (Account, error)
	GetAccountByPath(ctx context.Context, path string) (Account, error)
	GetFeeRates(ctx context.Context) (FeeRates, error)
	Dispose()
}

// WalletFactory constructs a backend from a seed phrase and its config.
type WalletFactory func(seed string, config any) (WalletBackend, error)

// WalletRegistration binds a factory to a blockchain.
type WalletRegistration struct {
	Blockchain string
	Factory    WalletFactory
	Config     any
}
