package reports

import (
	"io"
	"sort"
	"time"

	"github.com/foomo/grabber/vo"
)

type score struct {
	TargetURL string
	Kind      vo.PageKind
	Code      int
	Duration  time.Duration
}

type scores []score

func (s scores) Len() int           { return len(s) }
func (s scores) Less(i, j int) bool { return s[i].Duration > s[j].Duration }
func (s scores) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// reportHighscore lists the slowest requests first.
func reportHighscore(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("high score")
	scores := scores{}
	for _, r := range status.Results {
		if filter != nil && !filter(r) {
			continue
		}
		scores = append(scores, score{
			Duration:  r.Duration,
			Kind:      r.Kind,
			Code:      r.Code,
			TargetURL: r.TargetURL,
		})
	}
	sort.Stable(scores)
	for i, s := range scores {
		println(i, s.Code, s.Kind, s.TargetURL, s.Duration)
	}
}
