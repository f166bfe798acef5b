package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/josephgoksu/ReqWing/internal/docload"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/export"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/spf13/viper"
)

// HandleFatalError handles unrecoverable errors that should terminate the application.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	os.Exit(1)
}

// PrintError prints an error message without exiting, allowing for recovery.
// With --verbose the technical error is printed instead of userMsg.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError logs an error without printing to stderr if verbose mode is off.
func LogError(msg string, err error) {
	if viper.GetBool("verbose") {
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
		}
	}
}

// friendlyError turns a command error into a short message for the user.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, docload.ErrUnsupportedType):
		return "Unsupported document type. Use a .txt, .md or .pdf file."
	case errors.Is(err, docload.ErrTooLarge):
		return "The document is too large."
	case errors.Is(err, export.ErrNoDocument):
		return "No requirements document has been generated yet."
	case errors.Is(err, project.ErrNotFound):
		return "Project not found."
	}
	if kind, ok := elicit.KindOf(err); ok {
		switch kind {
		case elicit.KindInput:
			return err.Error()
		case elicit.KindDocument:
			return "The document could not be read. Try a different file or describe your idea in text."
		case elicit.KindStep:
			return "The language model request failed. Check your API key and network, then try again."
		case elicit.KindStage:
			return "That action is not available at this point in the workflow."
		}
	}
	return fmt.Sprintf("Error: %v (use --verbose for details)", err)
}
