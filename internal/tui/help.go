package tui

import "strings"

func helpView() string {
	helpLines := []string{
		"Certificate Designer Help",
		"=========================",
		"",
		"Selection:",
		"----------",
		"  Tab/Shift+Tab    Select next/previous element",
		"  Esc              Clear selection",
		"",
		"Adding Elements (press a, then):",
		"--------------------------------",
		"  t                Text",
		"  r / c / h        Rectangle / circle / hexagon",
		"  q                QR code",
		"  s                Serial number",
		"  g                Signature",
		"  i                Image (asks for a file path, URL or data URI)",
		"",
		"Editing:",
		"--------",
		"  h/←/j/↓/k/↑/l/→  Move selected element (snaps to guides)",
		"  Shift+h/j/k/l    Move 10x faster",
		"  +/-              Scale selected element",
		"  e/Enter          Edit text, QR or serial content",
		"  f                Cycle field binding",
		"  d/Delete         Delete selection",
		"  D                Duplicate selection",
		"  y / p            Copy / paste",
		"  G / U            Group / ungroup",
		"  ] / [            Bring forward / send backward",
		"  } / {            Bring to front / send to back",
		"",
		"Document:",
		"---------",
		"  P                Publish (read-only)",
		"  N                Create new version",
		"  A                Archive",
		"  v                Toggle placeholder preview",
		"  g / b            Toggle grid / bleed",
		"  Ctrl+S           Save template",
		"  E                Export as PDF or PNG",
		"  S                Snapshot the editor view as PNG",
		"",
		"General:",
		"  u                Undo last action",
		"  Ctrl+R           Redo last undone action",
		"  ?                Show this help screen",
		"  q/Ctrl+C         Quit",
		"",
		"Press any key to return.",
	}
	return strings.Join(helpLines, "\n")
}
