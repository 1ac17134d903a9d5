package tray

import (
	"embed"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
	"github.com/ncruces/zenity"

	"github.com/ReEnvision-AI/focus/app/tray/commontray"
)

//go:embed assets
var iconFS embed.FS

type focusTray struct {
	callbacks     commontray.Callbacks
	icon          []byte
	updateIcon    []byte
	shortcutLabel string

	mu              sync.Mutex
	ready           bool
	title           string
	pendingVersion  string
	updateAvailItem *systray.MenuItem
	updateItem      *systray.MenuItem
}

// NewTray loads the platform icons and returns a tray that is not yet shown;
// call Register before the host event loop starts.
func NewTray(shortcutLabel string) (commontray.FocusTray, error) {
	icon, err := loadIcon(commontray.IconName)
	if err != nil {
		return nil, err
	}
	updateIcon, err := loadIcon(commontray.UpdateIconName)
	if err != nil {
		return nil, err
	}
	return &focusTray{
		callbacks:     commontray.NewCallbacks(),
		icon:          icon,
		updateIcon:    updateIcon,
		shortcutLabel: shortcutLabel,
	}, nil
}

func loadIcon(name string) ([]byte, error) {
	ext := ".png"
	if runtime.GOOS == "windows" {
		ext = ".ico"
	}
	data, err := iconFS.ReadFile("assets/" + name + ext)
	if err != nil {
		return nil, fmt.Errorf("failed to load tray icon %s: %w", name, err)
	}
	return data, nil
}

func (t *focusTray) GetCallbacks() commontray.Callbacks {
	return t.callbacks
}

func (t *focusTray) Register() {
	systray.Register(t.onReady, t.onExit)
}

func (t *focusTray) onReady() {
	if runtime.GOOS == "darwin" {
		systray.SetTemplateIcon(t.icon, t.icon)
	} else {
		systray.SetIcon(t.icon)
	}
	systray.SetTooltip(commontray.Tooltip)

	showItem := systray.AddMenuItem(showMenuTitle, "")
	systray.AddSeparator()
	updateAvailItem := systray.AddMenuItem(updateAvailableMenuTitle, "")
	updateAvailItem.Disable()
	updateAvailItem.Hide()
	updateItem := systray.AddMenuItem(updateMenuTitle, "")
	updateItem.Hide()
	logsItem := systray.AddMenuItem(diagLogsMenuTitle, "")
	systray.AddSeparator()
	quitItem := systray.AddMenuItem(quitMenuTitle, "")

	t.mu.Lock()
	t.ready = true
	t.updateAvailItem = updateAvailItem
	t.updateItem = updateItem
	title, pending := t.title, t.pendingVersion
	t.mu.Unlock()

	if title != "" {
		t.applyTitle(title)
	}
	if pending != "" {
		t.showUpdate(pending)
	}

	go func() {
		for {
			select {
			case <-showItem.ClickedCh:
				signal(t.callbacks.Show)
			case <-updateItem.ClickedCh:
				signal(t.callbacks.Update)
			case <-logsItem.ClickedCh:
				signal(t.callbacks.ShowLogs)
			case <-quitItem.ClickedCh:
				signal(t.callbacks.Quit)
				return
			}
		}
	}()
	slog.Debug("tray ready")
}

func (t *focusTray) onExit() {
	slog.Debug("tray exited")
}

// signal never blocks the menu loop; a pending request is enough.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// SetTitle shows text next to the tray icon. An empty title clears it.
func (t *focusTray) SetTitle(title string) error {
	t.mu.Lock()
	t.title = title
	ready := t.ready
	t.mu.Unlock()

	if ready {
		t.applyTitle(title)
	}
	return nil
}

func (t *focusTray) applyTitle(title string) {
	systray.SetTitle(title)
	if title == "" {
		systray.SetTooltip(commontray.Tooltip)
	} else {
		// windows has no tray title, the tooltip carries it instead
		systray.SetTooltip(commontray.Tooltip + " " + title)
	}
}

func (t *focusTray) UpdateAvailable(ver string) error {
	t.mu.Lock()
	t.pendingVersion = ver
	ready := t.ready
	t.mu.Unlock()

	if ready {
		t.showUpdate(ver)
	}
	return t.Notify(updateTitle, fmt.Sprintf(updateMessage, ver))
}

func (t *focusTray) showUpdate(ver string) {
	if runtime.GOOS == "darwin" {
		systray.SetTemplateIcon(t.updateIcon, t.updateIcon)
	} else {
		systray.SetIcon(t.updateIcon)
	}
	t.mu.Lock()
	avail, update := t.updateAvailItem, t.updateItem
	t.mu.Unlock()
	avail.SetTitle(fmt.Sprintf("%s (%s)", updateAvailableMenuTitle, ver))
	avail.Show()
	update.Show()
}

func (t *focusTray) DisplayFirstUseNotification() error {
	return t.Notify(firstTimeTitle, fmt.Sprintf(firstTimeMessage, t.shortcutLabel))
}

func (t *focusTray) Notify(title, message string) error {
	if err := zenity.Notify(message, zenity.Title(title), zenity.InfoIcon); err != nil {
		return fmt.Errorf("failed to display notification: %w", err)
	}
	return nil
}

func (t *focusTray) Quit() {
	systray.Quit()
}
