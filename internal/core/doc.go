// Package core provides the business logic for booking ingestion.
//
// This package turns spreadsheet rows into parking bookings. It has no HTTP
// or database driver dependencies: persistence goes through the [Store] and
// [Tx] interfaces, which the database package implements on top of pgx.
// Web handlers, the import CLI and tests all drive the same [Service].
//
// # Row Import
//
// [Importer.ImportRow] validates one row keyed by the exact spreadsheet
// headers (see [Columns]), resolves the customer and vehicle it refers to,
// and inserts a booking tagged with its source and "row_N" identifier.
// Validation failures are returned as [*RowError] and never abort a batch.
// Any other error is an infrastructure failure.
//
// # Bulk Import
//
// [Service.ImportFromFile] and [Service.ImportFromString] sniff the field
// delimiter, read the header row, and feed every following row through the
// importer inside one transaction:
//
//  1. Rows are numbered from 2 (line 1 is the header)
//  2. All-blank rows are counted as skipped
//  3. Rejected rows are rolled back to their savepoint and reported in [Statistics]
//  4. Successful rows are committed together at the end
//
// An infrastructure failure rolls back the whole run and is returned as
// [*ImportError].
//
// # Webhook Import
//
// [Service.ImportWebhook] reshapes a Google Sheets payload into the same row
// vocabulary and imports it on its own transaction. Duplicate rows are
// acknowledged as [OutcomeDuplicateIgnored] instead of failing.
package core
