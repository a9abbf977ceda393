// Package viz draws propagation results in the terminal: braille orbit
// plots via [Canvas] and the lipgloss styles shared by the CLI and the
// Monte Carlo progress view.
package viz
