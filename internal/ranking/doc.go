// Package ranking scores catalog candidates and picks the best one.
//
// Scores are additive: title similarity dominates (weight 100000), followed
// by a provider id hit in the candidate text, year proximity, language and
// audio-description preference bonuses and a small size tie-breaker. All
// weights and both similarity floors come from the [scoring] configuration
// section. The rejection floor keeps a large but unrelated upload from
// winning on bonuses alone.
package ranking
