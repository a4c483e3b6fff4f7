package main

import (
	"fmt"
	"io"

	"afterglow/internal/publish"
)

// renderEvents writes one line per event until events is closed.
func renderEvents(w io.Writer, events <-chan publish.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case publish.ThumbnailProgressEvent:
			if e.Total == 0 {
				continue
			}
			fmt.Fprintf(w, "thumbnail [%d/%d] %s\n", e.Current, e.Total, e.Filename)
		case publish.ProgressEvent:
			if e.Action == publish.ActionInvalidate {
				fmt.Fprintf(w, "[%d/%d] invalidating CDN cache\n", e.Current, e.Total)
				continue
			}
			fmt.Fprintf(w, "[%d/%d] %s %s\n", e.Current, e.Total, e.Action, e.File)
		case publish.ErrorEvent:
			if e.File == "" {
				fmt.Fprintf(w, "error: %s\n", e.Error)
				continue
			}
			fmt.Fprintf(w, "error: %s: %s\n", e.File, e.Error)
		case publish.CompleteEvent:
			status := "complete"
			if e.Cancelled {
				status = "cancelled"
			}
			fmt.Fprintf(w, "%s: %d uploaded, %d deleted, %d unchanged\n", status, e.Uploaded, e.Deleted, e.Unchanged)
		}
	}
}

// printPlan summarizes a plan on stdout.
func printPlan(plan *publish.Plan) {
	fmt.Printf("Plan %s (%d files, remote root %q)\n", plan.ID, plan.TotalFiles, plan.RemoteRoot)
	var bytes int64
	for _, f := range plan.ToUpload {
		bytes += f.SizeBytes
		fmt.Printf("  + %s (%s, %d bytes)\n", f.RemoteKey, f.ContentType, f.SizeBytes)
	}
	for _, key := range plan.ToDelete {
		fmt.Printf("  - %s\n", key)
	}
	fmt.Printf("%d to upload (%d bytes), %d to delete, %d unchanged\n",
		len(plan.ToUpload), bytes, len(plan.ToDelete), plan.Unchanged)
}
