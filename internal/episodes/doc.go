// Package episodes extracts season and episode numbers from catalog text
// and turns a ranked candidate list into a per-episode download plan.
package episodes
