package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"bytesub/internal/acquire"
	"bytesub/internal/services"
	"bytesub/internal/workflow"
)

// consoleObserver prints batch progress for an interactive user.
type consoleObserver struct {
	out         io.Writer
	showPreview bool
	colorize    bool
}

func newConsoleObserver(out io.Writer, showPreview, colorize bool) *consoleObserver {
	return &consoleObserver{out: out, showPreview: showPreview, colorize: colorize}
}

func (o *consoleObserver) ItemStarted(index, total int, in acquire.Input) {
	fmt.Fprintf(o.out, "[%d/%d] Processing: %s\n", index, total, in.String())
}

func (o *consoleObserver) ItemFinished(index, total int, in acquire.Input, preview string) {
	if !o.showPreview || strings.TrimSpace(preview) == "" {
		return
	}
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, preview)
	fmt.Fprintln(o.out)
}

func (o *consoleObserver) ItemFailed(index, total int, in acquire.Input, err error) {
	fmt.Fprintln(o.out, renderStatusLine(fmt.Sprintf("Item %d/%d", index, total), statusError, services.Summary(err), o.colorize))
}

func (o *consoleObserver) Progress(completed, total int) {
	if total <= 0 {
		return
	}
	fmt.Fprintf(o.out, "Progress: %d/%d (%d%%)\n", completed, total, completed*100/total)
}

func (o *consoleObserver) Finished(summary workflow.Summary) {
	if len(summary.Items) > 0 {
		fmt.Fprintln(o.out)
		fmt.Fprintln(o.out, renderSummaryTable(summary))
	}
	kind := statusOK
	switch {
	case summary.Cancelled:
		kind = statusWarn
	case summary.FailedCount() > 0:
		kind = statusError
	}
	fmt.Fprintln(o.out, renderStatusLine("Status", kind, summary.Status(), o.colorize))
	if counts := summary.FailureKinds(); len(counts) > 0 {
		kinds := make([]string, 0, len(counts))
		for k, n := range counts {
			kinds = append(kinds, fmt.Sprintf("%s=%d", k, n))
		}
		sort.Strings(kinds)
		fmt.Fprintln(o.out, renderStatusLine("Failures", statusInfo, strings.Join(kinds, ", "), o.colorize))
	}
	fmt.Fprintln(o.out, renderStatusLine("Elapsed", statusInfo, formatDuration(summary.Duration), o.colorize))
	if summary.RunID != "" {
		fmt.Fprintln(o.out, renderStatusLine("Run", statusInfo, summary.RunID+" (bytesub logs --run "+summary.RunID+")", o.colorize))
	}
}

func renderSummaryTable(summary workflow.Summary) string {
	rows := make([][]string, 0, len(summary.Items))
	for _, item := range summary.Items {
		result := "ok"
		output := item.Destination.SRTPath
		if item.Failed() {
			result = string(services.KindOf(item.Err))
			output = services.Summary(item.Err)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.Index),
			item.Input.String(),
			result,
			output,
		})
	}
	return renderTable(
		[]string{"#", "Input", "Result", "Output"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
