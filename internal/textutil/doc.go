// Package textutil provides the text helpers shared by title extraction,
// ranking and file naming.
//
// NormalizeSearchTitle folds typographic punctuation and diacritics so
// "Dalíland" searches as "Daliland". SanitizeFileName replaces characters that
// are unsafe on common filesystems. Words and SignificantWords build the word
// sets used by the stop-word aware title similarity.
package textutil
