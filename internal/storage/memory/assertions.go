package memory

import (
	"github.com/arkcrm/rentledger/internal/service/payment"
	"github.com/arkcrm/rentledger/internal/service/reconcile"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ payment.Repo     = (*Store)(nil)
	_ payment.Writer   = (*Store)(nil)
	_ reconcile.Repo   = (*Store)(nil)
	_ reconcile.Writer = (*Store)(nil)
)
