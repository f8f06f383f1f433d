// Package prompt renders the generation prompts for the three features.
//
// All rendering is deterministic string templating; every tuning decision
// (tone of the instructions, how intensity is phrased) lives here so it is
// easy to tweak without hunting through call sites.
package prompt
