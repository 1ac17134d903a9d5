//go:build windows

package shortcut

import "golang.design/x/hotkey"

var (
	superModifier = hotkey.ModWin
	altModifier   = hotkey.ModAlt
	superLabel    = "Win"
)
