// Package interactive provides terminal user interface components
package interactive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// MenuOption represents a menu item with its associated action
type MenuOption struct {
	Name        string
	Description string
	Action      func() error
}

var (
	// ErrExit is returned when the user chooses to exit
	ErrExit = errors.New("exit")
	// ErrInvalidSelection is returned when an invalid menu option is selected
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrAborted is returned when the user interrupts a prompt
	ErrAborted = errors.New("prompt aborted")
)

// ShowMainMenu displays the main menu and handles user selection
func ShowMainMenu(options []MenuOption) error {
	return ShowMenu("What would you like to do?", "Exit", options)
}

// ShowMenu displays a menu with a trailing leave entry. Choosing it, or
// interrupting the prompt, returns ErrExit.
func ShowMenu(message, leave string, options []MenuOption) error {
	choices := make([]string, 0, len(options)+1)
	optionMap := make(map[string]MenuOption)

	for _, opt := range options {
		choice := menuChoice(opt)
		choices = append(choices, choice)
		optionMap[choice] = opt
	}

	choices = append(choices, leave)

	var selected string
	prompt := &survey.Select{
		Message:  message,
		Options:  choices,
		PageSize: len(choices),
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return ErrExit
	}

	if selected == leave {
		return ErrExit
	}

	if option, ok := optionMap[selected]; ok {
		return option.Action()
	}

	return ErrInvalidSelection
}

func menuChoice(opt MenuOption) string {
	if opt.Description == "" {
		return opt.Name
	}
	return fmt.Sprintf("%s - %s", opt.Name, opt.Description)
}

// PauseForEnter waits for the user to press Enter
func PauseForEnter() {
	fmt.Println("\nPress Enter to continue...")
	_, _ = fmt.Scanln()
}

// Confirm asks for user confirmation
func Confirm(message string) bool {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	_ = survey.AskOne(prompt, &confirmed)
	return confirmed
}

// Input asks for a single line of text.
func Input(message, def string, required bool) (string, error) {
	var answer string

	opts := []survey.AskOpt{}
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}

	if err := survey.AskOne(&survey.Input{Message: message, Default: def}, &answer, opts...); err != nil {
		return "", ErrAborted
	}

	return strings.TrimSpace(answer), nil
}

// Secret asks for a value without echoing it.
func Secret(message string) (string, error) {
	var answer string
	if err := survey.AskOne(&survey.Password{Message: message}, &answer); err != nil {
		return "", ErrAborted
	}

	return answer, nil
}

// Choose asks for one of options.
func Choose(message string, options []string, def string) (string, error) {
	var answer string

	prompt := &survey.Select{Message: message, Options: options}
	if def != "" {
		prompt.Default = def
	}

	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", ErrAborted
	}

	return answer, nil
}

// ChooseMany asks for any subset of options.
func ChooseMany(message string, options []string) ([]string, error) {
	var answers []string
	if err := survey.AskOne(&survey.MultiSelect{Message: message, Options: options, PageSize: len(options)}, &answers); err != nil {
		return nil, ErrAborted
	}

	return answers, nil
}

// Document asks for a JSON document through a multiline prompt, prefilled with def.
func Document(message, def string, validate func(string) error) (string, error) {
	var answer string

	opts := []survey.AskOpt{}
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}

	prompt := &survey.Editor{
		Message:       message,
		Default:       def,
		AppendDefault: true,
		HideDefault:   true,
		FileName:      "*.jsonc",
	}

	if err := survey.AskOne(prompt, &answer, opts...); err != nil {
		return "", ErrAborted
	}

	return answer, nil
}
