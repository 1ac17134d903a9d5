//go:build darwin

package shortcut

import "golang.design/x/hotkey"

var (
	superModifier = hotkey.ModCmd
	altModifier   = hotkey.ModOption
	superLabel    = "⌘"
)
