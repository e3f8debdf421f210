// Package mediathek queries the MediathekViewWeb catalog of German public
// broadcaster uploads.
//
// Movie searches walk three query variants and stop at the first that
// returns results. Series searches issue one wide query and keep only
// records whose title or topic names the series. Ranking happens elsewhere;
// this package only fetches and decodes.
package mediathek
