package model

import "strings"

type Chain string

const (
	ChainSolana Chain = "solana"
	ChainEth    Chain = "eth"
	ChainEgld   Chain = "egld"
)

func (c Chain) String() string {
	return string(c)
}

// ParseChain maps a chain name from a notification payload ("Solana", "Eth",
// "Egld") to its Chain value. Matching is case-insensitive. Unknown names
// return ok=false; callers log and skip rather than fail the event.
func ParseChain(name string) (Chain, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "solana":
		return ChainSolana, true
	case "eth", "ethereum":
		return ChainEth, true
	case "egld", "elrond":
		return ChainEgld, true
	default:
		return "", false
	}
}

// TransferType classifies a transaction's effect on an address balance.
type TransferType string

const (
	// TransferCredit means the post balance is greater than the pre balance.
	TransferCredit TransferType = "credit"
	// TransferDebit means the balance decreased or was unchanged (fee payer).
	TransferDebit TransferType = "debit"
	// TransferUnknown means the address was not found among the
	// transaction's participant accounts.
	TransferUnknown TransferType = "unknown"
)

func (t TransferType) String() string {
	return string(t)
}
