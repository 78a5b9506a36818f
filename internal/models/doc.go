// Package models defines the core domain models for Travelnote.
//
// # Entities
//
//   - Trip: one travel period with its own currency; the root aggregate
//   - Person: a traveler belonging to exactly one trip
//   - CashEntry: cash added to a person's personal pool
//   - Expense: a shared purchase on a trip, with optional photo attachments
//   - Payment: an amount a person fronted for an expense, by cash or card
//   - Share: an amount of an expense attributed to a person as consumer
//
// # Design Principles
//
//  1. Opaque integer IDs, assigned monotonically by the store at insert.
//  2. Cascade ownership: deleting a trip removes everything under it.
//  3. Avoid circular references: children hold parent IDs, not pointers.
//  4. Float money: amounts are float64; compare against zero with an
//     epsilon of 0.001, never with exact equality.
//
// Expense embeds its Payments and Shares the way a bill embeds line items:
// they are created together and replaced wholesale on update.
package models
