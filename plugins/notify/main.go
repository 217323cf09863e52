// Package main provides a notification plugin.
// It posts a desktop notification or speaks a line whenever the scene switches mode.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Trigger  string          `json:"trigger"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Source   string          `json:"source"`
	Rotation float64         `json:"rotation"`
	Config   json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Options is the per-binding configuration.
type Options struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Voice   string `json:"voice"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	args, err := command(runtime.GOOS, req)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	output, err := exec.Command(args[0], args[1:]...).CombinedOutput()
	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v: %s", req.Action, err, output)})
		return
	}

	data, _ := json.Marshal(map[string]string{"command": args[0]})
	writeResponse(Response{Success: true, Data: data})
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// options decodes the binding config and fills in defaults from the transition.
func options(req Request) (Options, error) {
	var opts Options
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &opts); err != nil {
			return opts, fmt.Errorf("invalid config: %w", err)
		}
	}
	if opts.Title == "" {
		opts.Title = "Yuletide"
	}
	if opts.Message == "" {
		opts.Message = fmt.Sprintf("%s -> %s", req.From, req.To)
		if req.Source != "" {
			opts.Message += " (" + req.Source + ")"
		}
	}
	return opts, nil
}

// command builds the argv for the given platform and action.
func command(goos string, req Request) ([]string, error) {
	opts, err := options(req)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case "notify":
		if goos == "darwin" {
			script := fmt.Sprintf("display notification %s with title %s",
				appleString(opts.Message), appleString(opts.Title))
			return []string{"osascript", "-e", script}, nil
		}
		return []string{"notify-send", opts.Title, opts.Message}, nil
	case "say":
		if goos == "darwin" {
			if opts.Voice != "" {
				return []string{"say", "-v", opts.Voice, opts.Message}, nil
			}
			return []string{"say", opts.Message}, nil
		}
		if opts.Voice != "" {
			return []string{"espeak", "-v", opts.Voice, opts.Message}, nil
		}
		return []string{"espeak", opts.Message}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}
}

// appleString quotes s as an AppleScript string literal.
func appleString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
