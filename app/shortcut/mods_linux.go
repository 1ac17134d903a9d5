//go:build linux

package shortcut

import "golang.design/x/hotkey"

// Mod4 is the super key and Mod1 is alt on a default X11 keymap.
var (
	superModifier = hotkey.Mod4
	altModifier   = hotkey.Mod1
	superLabel    = "Super"
)
