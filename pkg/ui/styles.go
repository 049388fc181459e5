// Package ui renders the event stream for terminal hosts.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. Single source of truth for all terminal colors.
var (
	skyBlue     = lipgloss.Color("#87CEEB") // primary accent
	mintGreen   = lipgloss.Color("#A8E6CF") // actions and success states
	softAmber   = lipgloss.Color("#FFD9A0") // plans awaiting approval
	salmonPink  = lipgloss.Color("#FFB3BA") // errors
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	planStyle = lipgloss.NewStyle().
			Foreground(softAmber)

	thoughtStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	resultStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	streamStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	promptStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)
)
