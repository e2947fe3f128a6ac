// Package storage is the persistent key-value backing of the client.
//
// Two substrates live in one sqlite database:
//
//   - the local store (table local_storage): durable, never sent over the
//     wire, authoritative for client-side reads;
//   - the cookie store (table cookies): a write-through mirror that Jar
//     attaches to every request to the API origin, so server-rendered pages
//     can read identity before any client logic runs.
//
// Both implement Store. A missing key is never an error. Backing.Atomically
// writes both substrates in one transaction.
//
// Callers running outside an interactive environment (server-side
// rendering) must check Backing.Interactive before touching either store.
package storage
