// Package filterchain derives content-addressed cache keys and minimal
// generation plans for the layered filter stack.
//
// Layers are stored in visual order (index 0 is the top of the stack,
// Photoshop convention) but processing runs bottom-to-top: the bottom-most
// enabled layer transforms the original text first and each layer above it
// transforms the previous output. The two orderings are easy to conflate, so
// conversion happens in exactly one place (enabledBottomUp) and everything
// else works in processing order.
//
// A chain's cache key is the bottom-to-top join of its enabled
// "filter-intensity" segments. Two stacks that agree on a bottom prefix
// share a key prefix, which is what lets Plan reuse the longest cached
// portion instead of regenerating the whole chain.
package filterchain
