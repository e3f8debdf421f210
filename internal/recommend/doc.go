// Package recommend turns feed headlines into search-ready recommendations.
//
// Headlines follow the loose pattern `Director – „Movie“ (Year)`. ExtractTitle
// and ExtractYear pull out the quoted title and a plausible year; Classifier
// separates genuine recommendations from meta posts, and IsSeries decides
// between the movie and series paths.
package recommend
