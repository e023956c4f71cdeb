/*
account.go - Typed accounts instead of duck-typed strings

PURPOSE:
  Account names in transaction requests are free text. Left unchecked, a
  typo ("Bank Acount") silently opens a new balance bucket and fragments
  reports. The Chart validates and normalizes every account the posting
  engine touches: built-in accounts plus per-tenant registered ones.

NORMALIZATION:
  Names are compared case-insensitively with collapsed whitespace, but the
  canonical spelling is what gets stored, so "  cash " and "CASH" both post
  to "Cash".
*/
package ledger

import (
	"fmt"
	"strings"
	"sync"
)

// Well-known account names used by the posting templates.
const (
	AccountCash         = "Cash"
	AccountBank         = "Bank Account"
	AccountSalesRevenue = "Sales Revenue"
	CategoryGeneral     = "General Expense"
)

// Account is a validated account reference: canonical name plus type.
type Account struct {
	Name string
	Type AccountType
}

// Chart is the set of accounts a tenant may post to. A built-in chart covers
// the posting templates; tenants can register additional accounts (custom
// expense categories arrive this way).
type Chart struct {
	mu       sync.RWMutex
	builtin  map[string]Account            // normalized name -> account
	byTenant map[TenantID]map[string]Account
}

func NewChart() *Chart {
	c := &Chart{
		builtin:  make(map[string]Account),
		byTenant: make(map[TenantID]map[string]Account),
	}
	for _, a := range []Account{
		{Name: AccountCash, Type: AccountAsset},
		{Name: AccountBank, Type: AccountAsset},
		{Name: AccountSalesRevenue, Type: AccountIncome},
		{Name: CategoryGeneral, Type: AccountExpense},
	} {
		c.builtin[normalizeAccountName(a.Name)] = a
	}
	return c
}

// Register adds a tenant-specific account. Registering an existing name
// (built-in or tenant) is a no-op so ingestion paths can call it blindly.
func (c *Chart) Register(tenant TenantID, name string, typ AccountType) Account {
	canonical := canonicalAccountName(name)
	key := normalizeAccountName(canonical)

	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.builtin[key]; ok {
		return a
	}
	accounts := c.byTenant[tenant]
	if accounts == nil {
		accounts = make(map[string]Account)
		c.byTenant[tenant] = accounts
	}
	if a, ok := accounts[key]; ok {
		return a
	}
	a := Account{Name: canonical, Type: typ}
	accounts[key] = a
	return a
}

// Resolve maps a free-text name to its canonical account for the tenant.
func (c *Chart) Resolve(tenant TenantID, name string) (Account, error) {
	key := normalizeAccountName(name)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if a, ok := c.builtin[key]; ok {
		return a, nil
	}
	if a, ok := c.byTenant[tenant][key]; ok {
		return a, nil
	}
	return Account{}, fmt.Errorf("%w: %q", ErrUnknownAccount, name)
}

// ResolveOrRegister resolves name, registering it with the given type when
// unknown. The posting engine uses this for expense categories, which are
// an open set.
func (c *Chart) ResolveOrRegister(tenant TenantID, name string, typ AccountType) Account {
	if a, err := c.Resolve(tenant, name); err == nil {
		return a
	}
	return c.Register(tenant, name, typ)
}

func normalizeAccountName(name string) string {
	return strings.ToLower(canonicalAccountName(name))
}

func canonicalAccountName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
