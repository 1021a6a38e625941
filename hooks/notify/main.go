// Command notify is a signset run hook that shows a desktop notification when
// a recording run ends. It reads the run summary as JSON on stdin.
//
// Build it into this directory so hook.json can find it:
//
//	go build -o hooks/notify/notify ./hooks/notify
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Summary is the subset of the run summary this hook uses.
type Summary struct {
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	Error        string `json:"error"`
	Root         string `json:"root"`
	FramesStored int    `json:"frames_stored"`
}

// Response represents the output to the hook runner.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var s Summary
	if err := json.NewDecoder(os.Stdin).Decode(&s); err != nil {
		writeResponse(fmt.Errorf("failed to decode summary: %w", err))
		return
	}

	title, body := message(s)
	writeResponse(notify(title, body))
}

func message(s Summary) (string, string) {
	title := "signset: recording " + s.Status
	body := fmt.Sprintf("%d frames stored in %s", s.FramesStored, s.Root)
	if s.Error != "" && s.Status != "completed" {
		body += "\n" + s.Error
	}
	return title, body
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(body), strconv.Quote(title))
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", title, body)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
