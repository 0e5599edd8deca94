// Package walletgate puts a policy gate in front of per-blockchain wallet
// backends and the swap, bridge and lending protocols built on them.
//
// A Manager holds wallet registrations, protocol registrations, account
// middlewares and an ordered policy set. Accounts and protocols handed out by
// the Manager are decorated: every mutating method (sendTransaction, swap,
// bridge, ...) is evaluated against the policies before it reaches the
// backend. Read-only methods pass straight through.
//
// Usage:
//
//	m := walletgate.New(seed, walletgate.WithLogger(logger))
//	m.RegisterWallet("ethereum", newEVMWallet, evmConfig).
//	    RegisterProtocol("ethereum", "velora", walletgate.SwapFactory(newVelora), nil).
//	    RegisterPolicies([]walletgate.Policy{{
//	        Name:     "max-transfer-1eth",
//	        Methods:  []string{"sendTransaction"},
//	        Evaluate: maxValue,
//	    }})
//
//	account, err := m.GetAccount(ctx, "ethereum", 0)
//	result, err := account.Call(ctx, "sendTransaction", tx)
//
// A rejected call returns a *PolicyViolationError and never reaches the
// backend. Policies can also be loaded from YAML with LoadPolicyFile and
// hot-reloaded with WatchPolicyFile.
package walletgate
