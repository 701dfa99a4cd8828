// Package gamedata holds the embedded reward catalogue, prize and minigame
// tables and tile category styles, plus YAML balance overrides.
package gamedata

import "embed"

// dataFS embeds the JSON tables in this directory.
//
//go:embed *.json
var dataFS embed.FS
