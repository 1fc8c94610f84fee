package prompt

import "github.com/AlecAivazis/survey/v2/terminal"

func terminalInterrupt() error { return terminal.InterruptErr }
