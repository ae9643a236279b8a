// Package ui renders the HTML status pages served by internal/server,
// using the a-h/templ component runtime. Components are written by
// hand against templ.ComponentFunc rather than generated from .templ
// source, but follow the same render contract: a Component's Render
// writes directly to an io.Writer given a context.
package ui

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/a-h/templ"
)

// JobListItem is one row in the job list page.
type JobListItem struct {
	ID             string
	State          string
	KeyCount       int
	SubgroupWidth  int
	KeysPerSecond  float64
	StartTime      time.Time
	EndTime        *time.Time
	Error          string
}

// JobDetail is the full detail view for a single job.
type JobDetail struct {
	ID             string
	State          string
	KeyCount       int
	Seed           int64
	SubgroupWidth  int
	KeysPerSecond  float64
	StartTime      time.Time
	EndTime        *time.Time
	ElapsedSec     float64
	Error          string
}

const pageHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #1a1a1a; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f4f4f4; }
.state-completed { color: #147a14; }
.state-failed { color: #a31515; }
.state-running { color: #b36b00; }
</style>
</head>
<body>
`

const pageTail = `</body>
</html>
`

func stateClass(state string) string {
	return "state-" + html.EscapeString(state)
}

// JobList renders the "/" page: a table of all known jobs.
func JobList(jobs []JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, pageHead, "Sort jobs")
		fmt.Fprintf(w, "<h1>Sort jobs</h1>\n<p><a href=\"/create\">Submit a new job</a></p>\n")

		if len(jobs) == 0 {
			fmt.Fprintf(w, "<p>No jobs submitted yet.</p>\n")
		} else {
			fmt.Fprintf(w, "<table>\n<tr><th>ID</th><th>State</th><th>Keys</th><th>Subgroup width</th><th>Keys/sec</th></tr>\n")
			for _, j := range jobs {
				fmt.Fprintf(w, "<tr><td><a href=\"/jobs/%s\">%s</a></td><td class=\"%s\">%s</td><td>%d</td><td>%d</td><td>%.0f</td></tr>\n",
					html.EscapeString(j.ID), html.EscapeString(j.ID), stateClass(j.State), html.EscapeString(j.State),
					j.KeyCount, j.SubgroupWidth, j.KeysPerSecond)
			}
			fmt.Fprintf(w, "</table>\n")
		}

		fmt.Fprint(w, pageTail)
		return nil
	})
}

// JobDetailPage renders "/jobs/:id": a single job's configuration and
// result.
func JobDetailPage(j JobDetail) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, pageHead, "Job "+html.EscapeString(j.ID))
		fmt.Fprintf(w, "<p><a href=\"/\">&larr; all jobs</a></p>\n")
		fmt.Fprintf(w, "<h1>Job %s</h1>\n", html.EscapeString(j.ID))
		fmt.Fprintf(w, "<p class=\"%s\">State: %s</p>\n", stateClass(j.State), html.EscapeString(j.State))

		fmt.Fprintf(w, "<h2>Configuration</h2>\n<table>\n")
		fmt.Fprintf(w, "<tr><td>Key count</td><td>%d</td></tr>\n", j.KeyCount)
		fmt.Fprintf(w, "<tr><td>Seed</td><td>%d</td></tr>\n", j.Seed)
		fmt.Fprintf(w, "</table>\n")

		fmt.Fprintf(w, "<h2>Result</h2>\n<table>\n")
		fmt.Fprintf(w, "<tr><td>Subgroup width</td><td>%d</td></tr>\n", j.SubgroupWidth)
		fmt.Fprintf(w, "<tr><td>Elapsed</td><td>%.4fs</td></tr>\n", j.ElapsedSec)
		fmt.Fprintf(w, "<tr><td>Throughput</td><td>%.0f keys/sec</td></tr>\n", j.KeysPerSecond)
		fmt.Fprintf(w, "</table>\n")

		if j.Error != "" {
			fmt.Fprintf(w, "<h2>Error</h2>\n<p class=\"state-failed\">%s</p>\n", html.EscapeString(j.Error))
		}

		fmt.Fprint(w, pageTail)
		return nil
	})
}

// JobNotFound renders a 404-equivalent body for an unknown job ID.
func JobNotFound(jobID string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, pageHead, "Job not found")
		fmt.Fprintf(w, "<p><a href=\"/\">&larr; all jobs</a></p>\n")
		fmt.Fprintf(w, "<h1>Job not found</h1>\n<p>No job with ID %s exists.</p>\n", html.EscapeString(jobID))
		fmt.Fprint(w, pageTail)
		return nil
	})
}

// CreateJobPage renders the "/create" submission form, optionally with
// an error message from a previous failed submission.
func CreateJobPage(errMsg string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, pageHead, "Submit a sort job")
		fmt.Fprintf(w, "<p><a href=\"/\">&larr; all jobs</a></p>\n")
		fmt.Fprintf(w, "<h1>Submit a sort job</h1>\n")

		if errMsg != "" {
			fmt.Fprintf(w, "<p class=\"state-failed\">%s</p>\n", html.EscapeString(errMsg))
		}

		fmt.Fprint(w, `<form method="post" action="/create">
<p><label>Key count <input type="number" name="keyCount" value="1000000" min="1"></label></p>
<p><label>Seed <input type="number" name="seed" value="42"></label></p>
<p><button type="submit">Submit</button></p>
</form>
`)
		fmt.Fprint(w, pageTail)
		return nil
	})
}
