// Package controller gates strategy-action triggers behind explicit roles:
// an admin who manages grants and controller-caller accounts allowed to fire
// periodic actions through the worker.
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"AutoVault/internal/model"
)

// Role names mirror the capability they grant.
type Role string

const (
	RoleAdmin            Role = "ADMIN"
	RoleControllerCaller Role = "CONTROLLER_CALLER"
)

// Trigger executes one periodic strategy action for a depositor of a vault.
// The worker implements it.
type Trigger interface {
	TriggerStrategyAction(ctx context.Context, vaultAddr, depositorAddr common.Address) error
}

// Controller is the role-gated entry point for strategy execution.
type Controller struct {
	mu      sync.Mutex
	roles   map[Role]map[common.Address]struct{}
	trigger Trigger
}

// New creates a controller with admin holding both roles.
func New(admin common.Address, trigger Trigger) (*Controller, error) {
	if admin == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero admin address", model.ErrInvalidParameters)
	}
	if trigger == nil {
		return nil, fmt.Errorf("%w: nil trigger", model.ErrInvalidParameters)
	}
	c := &Controller{
		roles:   make(map[Role]map[common.Address]struct{}),
		trigger: trigger,
	}
	c.grant(RoleAdmin, admin)
	c.grant(RoleControllerCaller, admin)
	return c, nil
}

func (c *Controller) grant(role Role, addr common.Address) {
	m, ok := c.roles[role]
	if !ok {
		m = make(map[common.Address]struct{})
		c.roles[role] = m
	}
	m[addr] = struct{}{}
}

// HasRole reports whether addr holds role.
func (c *Controller) HasRole(role Role, addr common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.roles[role][addr]
	return ok
}

// GrantRole lets an admin grant role to addr. Granting an already held role
// is a no-op.
func (c *Controller) GrantRole(caller common.Address, role Role, addr common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roles[RoleAdmin][caller]; !ok {
		return fmt.Errorf("%w: %s lacks %s", model.ErrUnauthorizedAccount, caller, RoleAdmin)
	}
	c.grant(role, addr)
	return nil
}

// RevokeRole lets an admin revoke role from addr.
func (c *Controller) RevokeRole(caller common.Address, role Role, addr common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roles[RoleAdmin][caller]; !ok {
		return fmt.Errorf("%w: %s lacks %s", model.ErrUnauthorizedAccount, caller, RoleAdmin)
	}
	delete(c.roles[role], addr)
	return nil
}

// TriggerStrategyAction forwards a trigger to the worker if caller holds the
// controller-caller role.
func (c *Controller) TriggerStrategyAction(ctx context.Context, caller, vaultAddr, depositorAddr common.Address) error {
	if !c.HasRole(RoleControllerCaller, caller) {
		return fmt.Errorf("%w: %s lacks %s", model.ErrUnauthorizedAccount, caller, RoleControllerCaller)
	}
	return c.trigger.TriggerStrategyAction(ctx, vaultAddr, depositorAddr)
}
