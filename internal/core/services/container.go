package services

import (
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(repos portsrepo.RepositoryContainer) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Float = NewFloatService(repos.Float)
	container.Handover = NewHandoverService(repos.Float, repos.Balance)
	container.Ledger = NewLedgerService(repos.Ledger, repos.Balance, repos.Float, repos.Limits, repos.ActionLog)

	// The ledger service owns deferred-action execution; the authority
	// service replays approved actions through it.
	executor := container.Ledger.(deferredExecutor)
	container.Authority = NewAuthorityService(repos.Limits, repos.ActionLog, repos.Ledger, executor)

	return container
}

var (
	_ portssvc.FloatSvcFacade     = (*floatService)(nil)
	_ portssvc.HandoverSvcFacade  = (*handoverService)(nil)
	_ portssvc.LedgerSvcFacade    = (*ledgerService)(nil)
	_ portssvc.AuthoritySvcFacade = (*authorityService)(nil)
	_ deferredExecutor            = (*ledgerService)(nil)
)
