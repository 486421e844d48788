package posts

import (
	"fmt"
)

type Action int

const (
	Skipped Action = iota
	Created
	Updated
)

func (a Action) String() string {
	return [...]string{"skipped", "created", "updated"}[a]
}

// Result is the outcome of publishing a single worksheet row. Row is the 1-based sheet row.
type Result struct {
	Row    int
	Action Action
	Title  string
	PostID string
	Err    error
}

type Report struct {
	Results []Result
}

type Summary struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

func (r Report) Summarize() Summary {
	summary := Summary{}

	for _, result := range r.Results {
		switch {
		case result.Err != nil:
			summary.Failed++

		case result.Action == Created:
			summary.Created++

		case result.Action == Updated:
			summary.Updated++

		default:
			summary.Skipped++
		}
	}

	return summary
}

func (s Summary) String() string {
	return fmt.Sprintf("created:%v  updated:%v  skipped:%v  failed:%v", s.Created, s.Updated, s.Skipped, s.Failed)
}
