// Package registry holds the static collection table of the scouting data
// service.
//
// Every source collection in an event database describes one kind of
// entity. The registry maps each collection to its DocumentType and each
// DocumentType to the ordered list of fields that form its natural key:
//
//	team        team_number
//	tim         match_number, team_number
//	aim         match_number, alliance_color_is_red
//	alliance    alliance_num
//	auto_paths  team_number, path_number
//
// Key field order is the nesting order of the aggregated viewer output, and
// descriptor order is merge precedence: when two collections describe the
// same entity, fields from the collection listed later win.
//
// The registry is configuration only. It is built once at process start with
// Default (or New for tests) and is never mutated afterwards.
package registry
