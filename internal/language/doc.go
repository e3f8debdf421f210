// Package language models the language and audio-description preferences and
// the keyword detectors that classify catalog candidates against them.
//
// Detection is a plain substring scan over lowercased title, description and
// topic text. Text without explicit markers counts as German without audio
// description, which matches how the public broadcasters label their uploads.
package language
