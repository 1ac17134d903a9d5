package tray

const (
	firstTimeTitle   = "Focus is running"
	firstTimeMessage = "Press %s to show or hide the timer"
	updateTitle      = "Update available"
	updateMessage    = "Focus version %s is ready to install"

	showMenuTitle            = "Show Focus"
	quitMenuTitle            = "Quit Focus"
	updateAvailableMenuTitle = "An update is available"
	updateMenuTitle          = "Restart to update"
	diagLogsMenuTitle        = "View logs"
)
