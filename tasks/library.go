package tasks

// A Library is an opaque data structure representing an immutable, ordered
// collection of active [Task]s.
type Library struct {
	ids   []string
	tasks map[string]Task

	routes map[string]string
}

// NewLibrary creates a Library with the given tasks in it. Inactive tasks are
// left out entirely, and if two tasks share an ID, the first one wins.
func NewLibrary(tasks ...Task) Library {
	lib := Library{tasks: map[string]Task{}}
	for _, t := range tasks {
		cfg := t.Config()
		if !cfg.Active {
			continue
		}
		if _, isDuplicate := lib.tasks[cfg.ID]; isDuplicate {
			continue
		}
		lib.ids = append(lib.ids, cfg.ID)
		lib.tasks[cfg.ID] = t
	}
	lib.materializeRoutes()
	return lib
}

// IDs returns, in order, the task IDs present in the Library.
func (lib Library) IDs() []string { return lib.ids }

// Task returns the task with the given ID, or nil if there is no such task.
func (lib Library) Task(id string) Task { return lib.tasks[id] }

// Size returns the number of unique tasks in the library.
func (lib Library) Size() int { return len(lib.ids) }

// Has returns true if the library contains a task with the given ID.
func (lib Library) Has(id string) bool {
	_, has := lib.tasks[id]
	return has
}

// LongestID returns the width of the longest task ID in the library,
// _including_ the internal log IDs used by the runner.
func (lib Library) LongestID() int {
	longest := len("@taskopy")
	for _, id := range lib.ids {
		if l := len(id); l > longest {
			longest = l
		}
	}
	return longest
}

// Filter returns, in canonical order, the IDs of the tasks whose config
// satisfies pred.
func (lib Library) Filter(pred func(Config) bool) []string {
	var ids []string
	for _, id := range lib.ids {
		if pred(lib.tasks[id].Config()) {
			ids = append(ids, id)
		}
	}
	return ids
}

// HTTPTask returns the HTTP-enabled task served at route, or nil.
func (lib Library) HTTPTask(route string) Task {
	id, ok := lib.routes[route]
	if !ok {
		return nil
	}
	return lib.tasks[id]
}

// A MenuGroup is a run of menu-visible tasks sharing a submenu. The top-level
// group has an empty Submenu.
type MenuGroup struct {
	Submenu string
	IDs     []string
}

// Menu groups the menu-visible tasks by submenu. Top-level tasks come first;
// submenus follow in the order in which they first appear.
func (lib Library) Menu() []MenuGroup {
	top := MenuGroup{}
	var groups []MenuGroup
	index := map[string]int{}
	for _, id := range lib.ids {
		cfg := lib.tasks[id].Config()
		if !cfg.Menu {
			continue
		}
		if cfg.Submenu == "" {
			top.IDs = append(top.IDs, id)
			continue
		}
		i, ok := index[cfg.Submenu]
		if !ok {
			i = len(groups)
			index[cfg.Submenu] = i
			groups = append(groups, MenuGroup{Submenu: cfg.Submenu})
		}
		groups[i].IDs = append(groups[i].IDs, id)
	}
	if len(top.IDs) == 0 {
		return groups
	}
	return append([]MenuGroup{top}, groups...)
}

// materializeRoutes computes and stores lib.routes. It is not threadsafe,
// so it must be called before handing a Library to the user.
func (lib *Library) materializeRoutes() {
	lib.routes = map[string]string{}
	for _, id := range lib.ids {
		cfg := lib.tasks[id].Config()
		if !cfg.HTTP {
			continue
		}
		if _, taken := lib.routes[cfg.Route()]; taken {
			continue
		}
		lib.routes[cfg.Route()] = id
	}
}
