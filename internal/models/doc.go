// Package models defines the core domain records for Spendbook.
//
// # Records
//
//   - Group: the aggregate root; owns members and expenses and carries
//     denormalized rollups (TotalSpent, MembersTotal, id lists)
//   - Member: a participant in a group; carries its own TotalSpent rollup
//     and the list of its expense ids
//   - Expense: a single spend, owned by exactly one member at a time and
//     denormalized onto its group
//   - ExpenseCategory: read-mostly lookup record referenced by expenses
//
// # Rollups
//
// Group.TotalSpent must equal the sum of the amounts of all live expenses
// whose RelatedGroup is that group; Member.TotalSpent must equal the sum
// over its own expenses; the id lists must contain exactly the ids of the
// live records referencing the parent. The ledger engine is the only writer
// allowed to touch these fields.
//
// # Design Principles
//
//  1. Records reference each other by ID strings, never by pointers
//  2. Partial updates use patch structs with pointer fields so an absent
//     field and a zero value stay distinguishable
//  3. Rollup fields are plain data here; keeping them true is the ledger
//     engine's job, not the model's
package models
