package executor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/CliForge/siemctl/pkg/fieldmap"
	"github.com/CliForge/siemctl/pkg/interactive"
	"github.com/CliForge/siemctl/pkg/output"
	"github.com/pterm/pterm"
)

// preview renders the request body with secrets masked, the way it will be
// sent, in a titled box.
func (e *Executor) preview(title string, fields *fieldmap.Map) (string, error) {
	body, err := fields.Masked(e.masking.Mask)
	if err != nil {
		return "", fmt.Errorf("failed to render request preview: %w", err)
	}
	text, err := output.YAML(body)
	if err != nil {
		return "", err
	}

	return pterm.DefaultBox.
		WithTitle(title).
		WithTitleTopCenter().
		Sprint(strings.TrimRight(text, "\n")), nil
}

// confirmRequest shows the preview and asks whether to send the request.
func (e *Executor) confirmRequest(title string, fields *fieldmap.Map) (bool, error) {
	text, err := e.preview(title, fields)
	if err != nil {
		return false, err
	}
	e.page(text)

	confirmed, err := e.prompter.Confirm(&interactive.ConfirmPromptOptions{
		Message: "Do you want to submit this request?",
		Default: false,
	})
	if err != nil {
		return false, err
	}
	if !confirmed {
		pterm.Info.WithWriter(e.out).Println("Operation canceled by user")
	}
	return confirmed, nil
}

// page writes text through the configured pager, falling back to the plain
// output when no pager is set or it cannot run.
func (e *Executor) page(text string) {
	if len(e.pager) > 0 {
		cmd := exec.Command(e.pager[0], e.pager[1:]...)
		cmd.Stdin = strings.NewReader(text + "\n")
		cmd.Stdout = e.out
		cmd.Stderr = os.Stderr
		err := cmd.Run()
		if err == nil {
			return
		}
		e.logger.Debug("pager failed", e.logger.Args("pager", strings.Join(e.pager, " "), "error", err.Error()))
	}
	e.println()
	e.println(text)
	e.println()
}
