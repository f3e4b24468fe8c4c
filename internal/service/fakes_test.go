package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"cubedraft/internal/sheets"
)

// fakeRows is an in-memory stand-in for the sheets row API. Each tab is a
// grid of rows including the header row, mirroring how the spreadsheet
// itself is laid out.
type fakeRows struct {
	mu   sync.Mutex
	tabs map[string][][]string
}

func newFakeRows() *fakeRows {
	return &fakeRows{tabs: make(map[string][][]string)}
}

func splitRange(rng string) (tab, ref string) {
	parts := strings.SplitN(rng, "!", 2)
	if len(parts) != 2 {
		return rng, ""
	}
	return parts[0], parts[1]
}

func (f *fakeRows) Read(_ context.Context, _ string, readRange string, _ sheets.RenderMode) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tab, ref := splitRange(readRange)
	grid := f.tabs[tab]

	if strings.HasPrefix(ref, "A1:A1") {
		if len(grid) == 0 || len(grid[0]) == 0 {
			return nil, nil
		}
		return [][]string{{grid[0][0]}}, nil
	}
	if strings.HasPrefix(ref, "A2:") {
		if len(grid) < 2 {
			return nil, nil
		}
		out := make([][]string, len(grid)-1)
		for i, row := range grid[1:] {
			out[i] = append([]string(nil), row...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("fakeRows: unsupported read range %q", readRange)
}

func (f *fakeRows) Append(_ context.Context, _ string, writeRange string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tab, _ := splitRange(writeRange)
	for _, row := range rows {
		f.tabs[tab] = append(f.tabs[tab], append([]string(nil), row...))
	}
	return nil
}

var cellRangeRe = regexp.MustCompile(`^([A-Z])(\d+):([A-Z])(\d+)$`)

func (f *fakeRows) Overwrite(_ context.Context, _ string, writeRange string, rows [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tab, ref := splitRange(writeRange)
	if ref == "A1" {
		if len(f.tabs[tab]) == 0 {
			f.tabs[tab] = append(f.tabs[tab], nil)
		}
		f.tabs[tab][0] = append([]string(nil), rows[0]...)
		return nil
	}

	m := cellRangeRe.FindStringSubmatch(ref)
	if m == nil {
		return fmt.Errorf("fakeRows: unsupported overwrite range %q", writeRange)
	}
	startCol := int(m[1][0] - 'A')
	rowNum, _ := strconv.Atoi(m[2])
	grid := f.tabs[tab]
	if rowNum-1 >= len(grid) {
		return fmt.Errorf("fakeRows: overwrite past end of %s (row %d)", tab, rowNum)
	}
	for i, val := range rows[0] {
		for len(grid[rowNum-1]) <= startCol+i {
			grid[rowNum-1] = append(grid[rowNum-1], "")
		}
		grid[rowNum-1][startCol+i] = val
	}
	return nil
}

func (f *fakeRows) tabRows(tab string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.tabs[tab]))
	for i, row := range f.tabs[tab] {
		out[i] = append([]string(nil), row...)
	}
	return out
}

type sentMessage struct {
	target string
	text   string
}

// fakeMessenger records sends and answers reply collection from a script.
type fakeMessenger struct {
	mu       sync.Mutex
	dms      []sentMessage
	channels []sentMessage

	dmErrFor map[string]error
	replies  map[string]string // userID -> reply token; missing means timeout
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		dmErrFor: make(map[string]error),
		replies:  make(map[string]string),
	}
}

func (f *fakeMessenger) SendDirect(_ context.Context, userID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.dmErrFor[userID]; err != nil {
		return "", err
	}
	f.dms = append(f.dms, sentMessage{target: userID, text: text})
	return "dm-" + userID, nil
}

func (f *fakeMessenger) SendToChannel(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, sentMessage{target: channelID, text: text})
	return nil
}

func (f *fakeMessenger) CollectOneReply(_ context.Context, _, userID string, accept func(string) bool, _ time.Duration) (string, bool) {
	f.mu.Lock()
	reply, ok := f.replies[userID]
	f.mu.Unlock()
	if !ok || !accept(reply) {
		return "", false
	}
	return reply, true
}

func (f *fakeMessenger) dmCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.dms {
		if m.target == userID {
			n++
		}
	}
	return n
}

// fakeIdentity resolves display names from a fixed table.
type fakeIdentity struct {
	names map[string]string
	err   error
}

func (f *fakeIdentity) FetchDisplayName(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if name, ok := f.names[userID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown user %s", userID)
}

// fakePodSink records materialized pods and answers name-reuse checks.
type fakePodSink struct {
	mu    sync.Mutex
	used  map[string]bool
	pods  map[string][]string
	calls int
}

func newFakePodSink() *fakePodSink {
	return &fakePodSink{used: make(map[string]bool), pods: make(map[string][]string)}
}

func (f *fakePodSink) NameUsed(_ context.Context, podName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used[podName], nil
}

func (f *fakePodSink) Materialize(_ context.Context, podName string, memberIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.pods[podName] = append([]string(nil), memberIDs...)
	f.used[podName] = true
	return nil
}

func (f *fakePodSink) materializedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
