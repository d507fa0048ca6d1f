package tui

import "github.com/amonks/taskopy/internal/help"

var helpMenu = help.Menu{
	{
		Title: "Menu",
		Keys: []help.Key{
			{Keys: "enter", Desc: "run task"},
			{Keys: "x", Desc: "run left_click tasks"},
			{Keys: "e", Desc: "enable or disable"},
			{Keys: "r", Desc: "reload taskfile"},
			{Keys: "?", Desc: "show help"},
			{Keys: "q", Desc: "quit"},

			{Keys: "↑ or k", Desc: "previous task"},
			{Keys: "↓ or j", Desc: "next task"},
			{Keys: "0-9", Desc: "jump to task"},
			{Keys: "gg or G", Desc: "first or last task"},
			{Keys: "click", Desc: "run task"},
		},
	},
	{
		Title: "Log View",
		Keys: []help.Key{
			{Keys: "tab or l", Desc: "focus log"},
			{Keys: "esc or h", Desc: "focus menu"},
			{Keys: "↑ or k", Desc: "up one line"},
			{Keys: "↓ or j", Desc: "down one line"},
			{Keys: "ctrl+u", Desc: "up ½page"},
			{Keys: "ctrl+d", Desc: "down ½page"},
			{Keys: "gg", Desc: "go to top"},
			{Keys: "G", Desc: "go to tail"},
			{Keys: "s", Desc: "save log to file"},
		},
	},
	{
		Title: "Help",
		Keys: []help.Key{
			{Keys: "esc or q", Desc: "exit help"},
			{Keys: "ctrl+c ctrl+c", Desc: "quit"},
		},
	},
}
