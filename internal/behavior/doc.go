// Package behavior implements the agent's associative play memory.
//
// Memory maps game-state keys to the ordered controller inputs observed in
// them, alongside a bounded ring of recently seen states used for
// nearest-state fallback when an exact state was never observed. Selector
// draws actions from the memory with seeded randomness, Confidence and
// Progress derive the session metrics from memory shape, and Snapshot is
// the versioned on-disk form with an atomic replace-or-keep import.
package behavior
