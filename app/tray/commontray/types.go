package commontray

var (
	Title   = "Focus"
	Tooltip = "Focus"

	UpdateIconName = "focus_update"
	IconName       = "focus"
)

type Callbacks struct {
	Show     chan struct{}
	Quit     chan struct{}
	Update   chan struct{}
	ShowLogs chan struct{}
}

func NewCallbacks() Callbacks {
	return Callbacks{
		Show:     make(chan struct{}, 1),
		Quit:     make(chan struct{}, 1),
		Update:   make(chan struct{}, 1),
		ShowLogs: make(chan struct{}, 1),
	}
}

type FocusTray interface {
	GetCallbacks() Callbacks
	// Register hooks the tray into an event loop owned by the window host.
	Register()
	SetTitle(title string) error
	UpdateAvailable(ver string) error
	DisplayFirstUseNotification() error
	Notify(title, message string) error
	Quit()
}
