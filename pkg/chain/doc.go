// Package chain resolves EOSIO account names to the public keys that control
// them, and public keys to the accounts they control, through the HTTP API
// of a nodeos node.
//
//	resolver, err := chain.NewResolver(chain.Config{Endpoint: "https://eos.greymass.com"})
//	if err != nil {
//	    return err
//	}
//
//	info, err := resolver.AccountToPublicKey(ctx, "eosio.token")
//	var lookupErr *chain.AccountLookupError
//	if errors.As(err, &lookupErr) && lookupErr.Kind == chain.LookupNotFound {
//	    // the account does not exist
//	}
//
// Every failure is reported as an *AccountLookupError; transport errors,
// missing accounts and malformed responses are distinguished by Kind and can
// also be matched with errors.Is against ErrTransport, ErrNotFound, ErrDecode
// and ErrInvalidInput. There are no retries.
package chain
