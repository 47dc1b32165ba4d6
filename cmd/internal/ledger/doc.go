// Package ledger holds the expense-tracking domain: expenses, the shared
// category and payment-method catalogs, and their Postgres store.
package ledger
