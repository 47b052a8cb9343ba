package dashboard

// Action is one lifecycle action the launcher understands.
type Action struct {
	Name  string // argument passed to the launcher
	Label string
	Key   string // key binding on the control tab
	Icon  string
}

// Actions lists the launcher actions in display order.
var Actions = []Action{
	{Name: "start", Label: "Start", Key: "1", Icon: "🚀"},
	{Name: "stop", Label: "Stop", Key: "2", Icon: "🛑"},
	{Name: "restart", Label: "Restart", Key: "3", Icon: "🔄"},
	{Name: "dev", Label: "Dev mode", Key: "4", Icon: "🛠"},
	{Name: "build", Label: "Build", Key: "5", Icon: "🔨"},
	{Name: "install", Label: "Install", Key: "6", Icon: "📦"},
	{Name: "clean", Label: "Clean", Key: "7", Icon: "🧹"},
	{Name: "update", Label: "Update", Key: "8", Icon: "⬆"},
}

// LookupAction finds an action by name.
func LookupAction(name string) (Action, bool) {
	for _, a := range Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// ActionForKey finds the action bound to key.
func ActionForKey(key string) (Action, bool) {
	for _, a := range Actions {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// ActionNames returns the action names in display order.
func ActionNames() []string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = a.Name
	}
	return names
}
