// Package memory implements the long-term affective memory of a companion
// agent: episodic dialogue, user preferences, user profile facts, relationship
// milestones and an evolving emotional state, stored across five
// similarity-searchable collections.
//
// Architecture:
//   - Store: vector storage backend (chromem-go for the local SDK)
//   - Embedder: text-to-vector conversion (OpenAI API, local ONNX, or mock)
//   - System: collection writes, threshold-filtered retrieval, context
//     assembly, decay and reinforcement
//   - Tracker: the live emotional state, snapshotted into its own collection
//     on every mutation
//   - DecayScheduler: periodic wall-clock decay job
//
// Writes flow one way (exchange -> episodic memory -> relationship update ->
// emotional snapshot); reads fan out in parallel across collections and are
// merged into a single bounded context string for prompt injection.
//
// Episodic records carry importance and a decay factor. Retrieval reinforces
// a record (importance up, decay reset); the periodic decay job erodes the
// decay factor of idle records, proportionally slower for important ones.
// Context assembly hides records whose decayed weight falls below a threshold,
// so stale small talk fades while meaningful moments persist.
package memory
