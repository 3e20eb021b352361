// Package hashseq implements HashSeq, a replicated sequence CRDT for
// collaborative text editing over unpermissioned, Byzantine-tolerant
// networks.
//
// Unlike vector-clock or Lamport-timestamp sequence CRDTs, HashSeq
// identifies every edit solely by a cryptographic hash of its content and
// causal dependencies. Two replicas that have observed the same set of
// edits converge on the same sequence byte-for-byte, regardless of the
// order those edits arrived in — no per-collaborator identity is ever
// stored, so a participant cannot bias merge order by forging one.
//
// A Replica holds a causal tree of HashNodes (see Op and HashNode), a
// tombstone set of removed Ids, and a position index mapping visible
// character positions to Ids. Insert and Remove build new HashNodes
// locally; Apply and ApplyBatch install HashNodes received from peers,
// buffering any whose causal dependencies have not yet arrived.
package hashseq
