package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm prompts the user with a yes/no question. Returns true for yes.
func Confirm(prompt string) bool {
	return ask(StyleWarning, prompt)
}

// ConfirmDanger is like Confirm but styled with the error color, for
// irreversible actions such as renouncing ownership.
func ConfirmDanger(prompt string) bool {
	return ask(StyleError, "⚠ "+prompt)
}

func ask(style lipgloss.Style, prompt string) bool {
	fmt.Printf("%s [y/N]: ", style.Render(prompt))
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
