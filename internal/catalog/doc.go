// Package catalog loads course bundles and validates their content.
//
// A course bundle is a JSON file naming the known and target languages,
// the media directory holding raw audio, and the vocabulary units with
// their audio renditions. Loose JSON rows are converted into explicit
// structs at the boundary; every violation is reported as a UnitError
// naming the offending unit and field so authoring mistakes surface
// before a session starts.
package catalog
