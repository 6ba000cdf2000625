// Package inventory implements the backend of a multi-tenant warehouse
// inventory dashboard: products, employees, stock assignments, scrap records
// and stock logs, all partitioned by warehouse.
//
// Access control:
//   - AccessResolver decides, for a signed-in email, whether the account is
//     approved, which role it holds and which warehouses it may see. One
//     configured super admin email is always approved and sees every
//     warehouse; its record is bootstrapped on first sign in.
//   - ApprovalStateMachine owns the pending, approved and revoked lifecycle
//     of an account and emits ActivityEvents on every transition.
//
// Stock operations:
//   - Every mutation is a command handler (XMessage + XHandler.Execute) that
//     runs inside a single database transaction and appends a StockLog entry
//     describing what changed and who changed it.
//
// Reads:
//   - Repositories apply display defaults on the way out (see Normalize
//     methods on each model) so callers never see empty names or statuses.
//   - SnapshotLoader fetches all collections for a warehouse concurrently.
package inventory
